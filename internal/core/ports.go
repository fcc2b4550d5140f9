package core

import "context"

// Repository ports consumed by the service layer. The SQLite
// implementations live in internal/storage; tests use in-memory fakes.

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *User) error
}

type BudgetRepository interface {
	Create(ctx context.Context, b *Budget) error
	GetByID(ctx context.Context, id int64) (*Budget, error)
	// GetByUserAndCategory matches the category case-insensitively.
	GetByUserAndCategory(ctx context.Context, userID int64, category string) (*Budget, error)
	ListByUser(ctx context.Context, userID int64) ([]Budget, error)
	Update(ctx context.Context, b *Budget) error
	Delete(ctx context.Context, id int64) error
}

type ExpenseRepository interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, id int64) (*Expense, error)
	ListByUser(ctx context.Context, userID int64) ([]Expense, error)
	ListRecentByUser(ctx context.Context, userID int64, limit int) ([]Expense, error)
	ListByUserAndRange(ctx context.Context, userID int64, start, end Date) ([]Expense, error)
	// SumByUserAndCategory totals outflow (type EXPENSE) rows for the
	// category, matched case-insensitively. Always a full recomputation.
	SumByUserAndCategory(ctx context.Context, userID int64, category string) (Money, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, id int64) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id int64) (*Notification, error)
	// ListByUser returns the owner's notifications, newest first.
	ListByUser(ctx context.Context, userID int64) ([]Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// AlertPublisher pushes a stored notification to the owner's real-time
// channel. Best effort; callers log failures and continue.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, n *Notification) error
}
