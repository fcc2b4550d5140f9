package core

import "errors"

// Account lifecycle and credential failures. The HTTP boundary maps these
// onto status codes; message text is what the client sees.
var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoPendingCode      = errors.New("no code found, please request a new one")
	ErrCodeExpired        = errors.New("code expired, please request a new one")
	ErrCodeMismatch       = errors.New("invalid code")
	ErrAlreadyVerified    = errors.New("user already verified")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("please verify your email before login")
	ErrUnauthorized       = errors.New("unauthorized")
)

// Record lookup failures.
var (
	ErrExpenseNotFound      = errors.New("expense not found")
	ErrBudgetNotFound       = errors.New("budget not found")
	ErrBudgetExists         = errors.New("budget for this category already exists")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Validation failures on writes.
var (
	ErrMissingUserID = errors.New("user id is required")
	ErrEmptyTitle    = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title too long (max 200 characters)")
	ErrEmptyCategory = errors.New("category is required")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("type must be INCOME or EXPENSE")
	ErrInvalidDate   = errors.New("date cannot be zero")
	ErrEmptyEmail    = errors.New("email is required")
	ErrEmptyPassword = errors.New("password is required")
)
