// Package storage implements the repository ports on SQLite.
//
// One store owns the connection; per-entity repositories share it.
// Dates are stored as "2006-01-02" text so lexicographic range scans
// match date order; timestamps are stored as RFC 3339 text.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"smartspend/internal/core"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339Nano
)

type SQLiteStore struct {
	db *sql.DB

	Users         *UserRepo
	Budgets       *BudgetRepo
	Expenses      *ExpenseRepo
	Notifications *NotificationRepo
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:            db,
		Users:         &UserRepo{db: db},
		Budgets:       &BudgetRepo{db: db},
		Expenses:      &ExpenseRepo{db: db},
		Notifications: &NotificationRepo{db: db},
	}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error, index string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), index)
}

func requireRowAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

// --- users ---

type UserRepo struct {
	db *sql.DB
}

const userColumns = `id, name, email, password_hash, verified,
	signup_code, signup_code_expires_at, reset_code, reset_code_expires_at,
	roles, created_at`

func (r *UserRepo) Create(ctx context.Context, u *core.User) error {
	signupCode, signupExpiry := codeSlotColumns(u.SignupCode)
	resetCode, resetExpiry := codeSlotColumns(u.ResetCode)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (name, email, password_hash, verified,
			signup_code, signup_code_expires_at, reset_code, reset_code_expires_at,
			roles, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash, u.Verified,
		signupCode, signupExpiry, resetCode, resetExpiry,
		joinRoles(u.Roles), u.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user insert id: %w", err)
	}
	u.ID = id
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepo) Update(ctx context.Context, u *core.User) error {
	signupCode, signupExpiry := codeSlotColumns(u.SignupCode)
	resetCode, resetExpiry := codeSlotColumns(u.ResetCode)

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, email = ?, password_hash = ?, verified = ?,
			signup_code = ?, signup_code_expires_at = ?,
			reset_code = ?, reset_code_expires_at = ?, roles = ?
		WHERE id = ?`,
		u.Name, u.Email, u.PasswordHash, u.Verified,
		signupCode, signupExpiry, resetCode, resetExpiry,
		joinRoles(u.Roles), u.ID)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return core.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRowAffected(res, core.ErrUserNotFound)
}

func codeSlotColumns(slot *core.CodeSlot) (sql.NullString, sql.NullString) {
	if slot == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: slot.Value, Valid: true},
		sql.NullString{String: slot.ExpiresAt.UTC().Format(timeLayout), Valid: true}
}

func scanCodeSlot(code, expiry sql.NullString) (*core.CodeSlot, error) {
	if !code.Valid {
		return nil, nil
	}
	at, err := time.Parse(timeLayout, expiry.String)
	if err != nil {
		return nil, fmt.Errorf("parse code expiry: %w", err)
	}
	return &core.CodeSlot{Value: code.String, ExpiresAt: at}, nil
}

func joinRoles(roles []core.Role) string {
	if len(roles) == 0 {
		return string(core.RoleUser)
	}
	parts := make([]string, len(roles))
	for i, role := range roles {
		parts[i] = string(role)
	}
	return strings.Join(parts, ",")
}

func splitRoles(s string) []core.Role {
	var out []core.Role
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, core.Role(part))
		}
	}
	return out
}

func scanUser(row *sql.Row) (*core.User, error) {
	var (
		u                        core.User
		signupCode, signupExpiry sql.NullString
		resetCode, resetExpiry   sql.NullString
		roles, createdAt         string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Verified,
		&signupCode, &signupExpiry, &resetCode, &resetExpiry,
		&roles, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if u.SignupCode, err = scanCodeSlot(signupCode, signupExpiry); err != nil {
		return nil, err
	}
	if u.ResetCode, err = scanCodeSlot(resetCode, resetExpiry); err != nil {
		return nil, err
	}
	u.Roles = splitRoles(roles)
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse user created_at: %w", err)
	}
	return &u, nil
}

// --- budgets ---

type BudgetRepo struct {
	db *sql.DB
}

func (r *BudgetRepo) Create(ctx context.Context, b *core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, category, amount_cents)
		VALUES (?, ?, ?)`,
		b.UserID, b.Category, b.Amount.Cents)
	if err != nil {
		if isUniqueViolation(err, "budgets") {
			return core.ErrBudgetExists
		}
		return fmt.Errorf("insert budget: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("budget insert id: %w", err)
	}
	b.ID = id
	return nil
}

func (r *BudgetRepo) GetByID(ctx context.Context, id int64) (*core.Budget, error) {
	return scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount_cents FROM budgets WHERE id = ?`, id))
}

func (r *BudgetRepo) GetByUserAndCategory(ctx context.Context, userID int64, category string) (*core.Budget, error) {
	// category is COLLATE NOCASE, the comparison is case-insensitive.
	return scanBudget(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount_cents
		 FROM budgets WHERE user_id = ? AND category = ?`, userID, category))
}

func (r *BudgetRepo) ListByUser(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category, amount_cents
		FROM budgets WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BudgetRepo) Update(ctx context.Context, b *core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET category = ?, amount_cents = ? WHERE id = ?`,
		b.Category, b.Amount.Cents, b.ID)
	if err != nil {
		if isUniqueViolation(err, "budgets") {
			return core.ErrBudgetExists
		}
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRowAffected(res, core.ErrBudgetNotFound)
}

func (r *BudgetRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRowAffected(res, core.ErrBudgetNotFound)
}

func scanBudget(row *sql.Row) (*core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrBudgetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan budget: %w", err)
	}
	return &b, nil
}

// --- expenses ---

type ExpenseRepo struct {
	db *sql.DB
}

const expenseColumns = `id, user_id, title, amount_cents, category, type, date, description, created_at`

func (r *ExpenseRepo) Create(ctx context.Context, e *core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, title, amount_cents, category, type, date, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Title, e.Amount.Cents, e.Category, string(e.Type),
		e.Date.Format(dateLayout), e.Description, e.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id
	return nil
}

func (r *ExpenseRepo) GetByID(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpenseRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrExpenseNotFound
	}
	return e, err
}

func (r *ExpenseRepo) ListByUser(ctx context.Context, userID int64) ([]core.Expense, error) {
	return r.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC`,
		userID)
}

func (r *ExpenseRepo) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	return r.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC LIMIT ?`,
		userID, limit)
}

func (r *ExpenseRepo) ListByUserAndRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error) {
	return r.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date, id`,
		userID, start.Format(dateLayout), end.Format(dateLayout))
}

func (r *ExpenseRepo) SumByUserAndCategory(ctx context.Context, userID int64, category string) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM expenses WHERE user_id = ? AND category = ? AND type = 'EXPENSE'`,
		userID, category).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func (r *ExpenseRepo) Update(ctx context.Context, e *core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET title = ?, amount_cents = ?, category = ?, type = ?, date = ?, description = ?
		WHERE id = ?`,
		e.Title, e.Amount.Cents, e.Category, string(e.Type),
		e.Date.Format(dateLayout), e.Description, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRowAffected(res, core.ErrExpenseNotFound)
}

func (r *ExpenseRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRowAffected(res, core.ErrExpenseNotFound)
}

func (r *ExpenseRepo) query(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpenseRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanExpenseRow(scan func(...any) error) (*core.Expense, error) {
	var (
		e               core.Expense
		typ             string
		date, createdAt string
	)
	err := scan(&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &e.Category,
		&typ, &date, &e.Description, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan expense: %w", err)
	}

	e.Type = core.ExpenseType(typ)
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse expense date: %w", err)
	}
	e.Date = core.Date{Time: day}
	if e.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse expense created_at: %w", err)
	}
	return &e, nil
}

// --- notifications ---

type NotificationRepo struct {
	db *sql.DB
}

func (r *NotificationRepo) Create(ctx context.Context, n *core.Notification) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, category, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, n.Category, n.Read, n.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("notification insert id: %w", err)
	}
	n.ID = id
	return nil
}

func (r *NotificationRepo) GetByID(ctx context.Context, id int64) (*core.Notification, error) {
	var (
		n         core.Notification
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, message, category, read, created_at
		FROM notifications WHERE id = ?`, id).
		Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Category, &n.Read, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	if n.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse notification created_at: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, category, read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var (
			n         core.Notification
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Category, &n.Read, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if n.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse notification created_at: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRowAffected(res, core.ErrNotificationNotFound)
}

var (
	_ core.UserRepository         = (*UserRepo)(nil)
	_ core.BudgetRepository       = (*BudgetRepo)(nil)
	_ core.ExpenseRepository      = (*ExpenseRepo)(nil)
	_ core.NotificationRepository = (*NotificationRepo)(nil)
)
