package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/log"
)

const recentLimit = 5

// ExpenseService owns expense writes and reads, scoped to the owning
// user, and feeds every persisted write into the budget monitor.
type ExpenseService struct {
	expenses core.ExpenseRepository
	monitor  *BudgetMonitor
	logger   *log.Logger
	now      func() time.Time
}

func NewExpenseService(expenses core.ExpenseRepository, monitor *BudgetMonitor, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		expenses: expenses,
		monitor:  monitor,
		logger:   logger.WithComponent(log.ComponentExpense),
		now:      time.Now,
	}
}

// Create persists a new expense and runs the budget check. The budget
// check cannot fail the write.
func (s *ExpenseService) Create(ctx context.Context, e *core.Expense) (*core.Expense, error) {
	if e.Date.IsZero() {
		now := s.now()
		e.Date = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	e.CreatedAt = s.now()
	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "expense created",
		log.FieldExpenseID, e.ID,
		log.FieldUserID, e.UserID,
		log.FieldCategory, e.Category,
		log.FieldAmountCents, e.Amount.Cents,
		log.FieldOperation, log.OpCreate)

	s.monitorHook(ctx, e)
	return e, nil
}

// Update replaces the mutable fields of an owned expense and re-runs the
// budget check.
func (s *ExpenseService) Update(ctx context.Context, id, userID int64, in *core.Expense) (*core.Expense, error) {
	existing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	existing.Title = in.Title
	existing.Amount = in.Amount
	existing.Category = in.Category
	existing.Type = in.Type
	existing.Date = in.Date
	existing.Description = in.Description
	if err := existing.Validate(); err != nil {
		return nil, err
	}

	if err := s.expenses.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}

	s.monitorHook(ctx, existing)
	return existing, nil
}

// Get returns an owned expense.
func (s *ExpenseService) Get(ctx context.Context, id, userID int64) (*core.Expense, error) {
	return s.getOwned(ctx, id, userID)
}

// Delete removes an owned expense. Deletion does not re-run the budget
// check: spend only went down.
func (s *ExpenseService) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.expenses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.logger.InfoContext(ctx, "expense deleted",
		log.FieldExpenseID, id,
		log.FieldUserID, userID,
		log.FieldOperation, log.OpDelete)
	return nil
}

// List returns all expenses of a user.
func (s *ExpenseService) List(ctx context.Context, userID int64) ([]core.Expense, error) {
	return s.expenses.ListByUser(ctx, userID)
}

// Recent returns the user's five most recent expenses by date.
func (s *ExpenseService) Recent(ctx context.Context, userID int64) ([]core.Expense, error) {
	return s.expenses.ListRecentByUser(ctx, userID, recentLimit)
}

// FilterParams narrows a listing. Zero values mean "no constraint".
type FilterParams struct {
	Category string
	Search   string
	MinCents *int64
	MaxCents *int64
	Start    *core.Date
	End      *core.Date
}

// Filter applies the given constraints over the user's expenses.
func (s *ExpenseService) Filter(ctx context.Context, userID int64, p FilterParams) ([]core.Expense, error) {
	all, err := s.expenses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]core.Expense, 0, len(all))
	for _, e := range all {
		if p.Category != "" && !strings.EqualFold(e.Category, p.Category) {
			continue
		}
		if p.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(p.Search)) {
			continue
		}
		if p.MinCents != nil && e.Amount.Cents < *p.MinCents {
			continue
		}
		if p.MaxCents != nil && e.Amount.Cents > *p.MaxCents {
			continue
		}
		if p.Start != nil && e.Date.Before(p.Start.Time) {
			continue
		}
		if p.End != nil && e.Date.After(p.End.Time) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// OnExpenseWritten re-exposes the monitor hook for callers that persist
// expenses outside this service.
func (s *ExpenseService) OnExpenseWritten(ctx context.Context, e *core.Expense) {
	s.monitorHook(ctx, e)
}

func (s *ExpenseService) monitorHook(ctx context.Context, e *core.Expense) {
	if s.monitor == nil {
		return
	}
	s.monitor.OnExpenseWritten(ctx, e)
}

func (s *ExpenseService) getOwned(ctx context.Context, id, userID int64) (*core.Expense, error) {
	e, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrExpenseNotFound) {
			return nil, core.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if e.UserID != userID {
		return nil, core.ErrUnauthorized
	}
	return e, nil
}
