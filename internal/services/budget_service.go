package services

import (
	"context"
	"fmt"

	"smartspend/internal/core"
	"smartspend/internal/log"
)

// BudgetService owns the per-(user, category) budget records.
type BudgetService struct {
	budgets core.BudgetRepository
	logger  *log.Logger
}

func NewBudgetService(budgets core.BudgetRepository, logger *log.Logger) *BudgetService {
	return &BudgetService{
		budgets: budgets,
		logger:  logger.WithComponent(log.ComponentBudget),
	}
}

// Create stores a budget. One budget per (user, category); a duplicate
// category surfaces as ErrBudgetExists from the repository.
func (s *BudgetService) Create(ctx context.Context, b *core.Budget) (*core.Budget, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.budgets.Create(ctx, b); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "budget created",
		log.FieldUserID, b.UserID,
		log.FieldCategory, b.Category,
		log.FieldAmountCents, b.Amount.Cents,
		log.FieldOperation, log.OpCreate)
	return b, nil
}

// List returns all budgets of a user.
func (s *BudgetService) List(ctx context.Context, userID int64) ([]core.Budget, error) {
	return s.budgets.ListByUser(ctx, userID)
}

// Get returns an owned budget by id.
func (s *BudgetService) Get(ctx context.Context, id, userID int64) (*core.Budget, error) {
	return s.getOwned(ctx, id, userID)
}

// GetByCategory returns the user's budget for a category, matched
// case-insensitively.
func (s *BudgetService) GetByCategory(ctx context.Context, userID int64, category string) (*core.Budget, error) {
	return s.budgets.GetByUserAndCategory(ctx, userID, category)
}

// Update replaces category and amount of an owned budget.
func (s *BudgetService) Update(ctx context.Context, id, userID int64, in *core.Budget) (*core.Budget, error) {
	existing, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	existing.Category = in.Category
	existing.Amount = in.Amount
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	if err := s.budgets.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	return existing, nil
}

// Delete removes an owned budget.
func (s *BudgetService) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.budgets.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.logger.InfoContext(ctx, "budget deleted",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpDelete)
	return nil
}

func (s *BudgetService) getOwned(ctx context.Context, id, userID int64) (*core.Budget, error) {
	b, err := s.budgets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, core.ErrBudgetNotFound
	}
	return b, nil
}
