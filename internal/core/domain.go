package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	TypeExpense ExpenseType = "EXPENSE"
	TypeIncome  ExpenseType = "INCOME"
)

// Budget classification states produced by the threshold monitor.
const (
	BudgetOK       BudgetState = "ok"
	BudgetNearing  BudgetState = "nearing"
	BudgetExceeded BudgetState = "exceeded"
)

type (
	Role        string
	ExpenseType string
	BudgetState string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// CodeSlot holds a single-use verification code and its expiry.
	// A nil slot means no code is pending; value and expiry travel together.
	CodeSlot struct {
		Value     string
		ExpiresAt time.Time
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		Verified     bool
		SignupCode   *CodeSlot
		ResetCode    *CodeSlot
		Roles        []Role
		CreatedAt    time.Time
	}

	Budget struct {
		ID       int64
		UserID   int64
		Category string
		Amount   Money
	}

	Expense struct {
		ID          int64
		UserID      int64
		Title       string
		Amount      Money
		Category    string
		Type        ExpenseType
		Date        Date
		Description string
		CreatedAt   time.Time
	}

	Notification struct {
		ID        int64
		UserID    int64
		Title     string
		Message   string
		Category  string
		Read      bool
		CreatedAt time.Time
	}
)

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

const dateLayout = "2006-01-02"

// MarshalJSON renders the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON parses a "2006-01-02" date, treating null and empty as zero.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String renders the amount as a plain decimal, e.g. "1234.56".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *CodeSlot) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Matches compares the stored code against a candidate with exact string equality.
func (c *CodeSlot) Matches(code string) bool {
	return c.Value == code
}

func (t ExpenseType) Validate() error {
	switch t {
	case TypeExpense, TypeIncome:
		return nil
	default:
		return ErrInvalidType
	}
}

func (e Expense) Validate() error {
	if e.UserID == 0 {
		return ErrMissingUserID
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return ErrTitleTooLong
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if b.UserID == 0 {
		return ErrMissingUserID
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

func (n Notification) Validate() error {
	if n.UserID == 0 {
		return ErrMissingUserID
	}
	return nil
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
