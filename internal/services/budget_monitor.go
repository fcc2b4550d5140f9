package services

import (
	"context"
	"errors"
	"fmt"

	"smartspend/internal/core"
	"smartspend/internal/log"
)

// ClassifySpend compares total category spend against the budget.
// Exceeded when spend is strictly over; nearing from 90% of the budget
// up to and including the budget itself.
func ClassifySpend(spent, budget core.Money) core.BudgetState {
	if spent.Cents > budget.Cents {
		return core.BudgetExceeded
	}
	if spent.Cents*10 >= budget.Cents*9 {
		return core.BudgetNearing
	}
	return core.BudgetOK
}

// BudgetMonitor recomputes category spend after every expense write and
// dispatches an alert when the configured budget is nearing or exceeded.
// Totals are always recomputed in full, never maintained incrementally,
// so concurrent writes converge on current data. Repeat alerts are not
// suppressed: every write that keeps a category over threshold fires
// again.
type BudgetMonitor struct {
	budgets       core.BudgetRepository
	expenses      core.ExpenseRepository
	notifications *NotificationService
	logger        *log.Logger
}

func NewBudgetMonitor(budgets core.BudgetRepository, expenses core.ExpenseRepository, notifications *NotificationService, logger *log.Logger) *BudgetMonitor {
	return &BudgetMonitor{
		budgets:       budgets,
		expenses:      expenses,
		notifications: notifications,
		logger:        logger.WithComponent(log.ComponentMonitor),
	}
}

// OnExpenseWritten is the fire-and-forget hook invoked after an expense
// create or update is persisted. It never fails the triggering write:
// every error path logs and returns.
func (m *BudgetMonitor) OnExpenseWritten(ctx context.Context, e *core.Expense) {
	if e == nil || e.UserID == 0 || e.Category == "" {
		return
	}

	budget, err := m.budgets.GetByUserAndCategory(ctx, e.UserID, e.Category)
	if err != nil {
		if !errors.Is(err, core.ErrBudgetNotFound) {
			m.logger.ErrorContext(ctx, "budget lookup failed",
				log.FieldUserID, e.UserID,
				log.FieldCategory, e.Category,
				log.FieldError, err)
		}
		// No budget configured for this category: nothing to monitor.
		return
	}

	spent, err := m.expenses.SumByUserAndCategory(ctx, e.UserID, e.Category)
	if err != nil {
		m.logger.ErrorContext(ctx, "spend recomputation failed",
			log.FieldUserID, e.UserID,
			log.FieldCategory, e.Category,
			log.FieldError, err)
		return
	}

	state := ClassifySpend(spent, budget.Amount)
	m.logger.DebugContext(ctx, "category spend classified",
		log.FieldUserID, e.UserID,
		log.FieldCategory, e.Category,
		log.FieldSpentCents, spent.Cents,
		log.FieldBudgetCents, budget.Amount.Cents,
		log.FieldBudgetState, string(state))

	if state == core.BudgetOK {
		return
	}

	alert := buildAlert(e.UserID, e.Category, state, spent, budget.Amount)
	if _, err := m.notifications.Dispatch(ctx, alert); err != nil {
		m.logger.ErrorContext(ctx, "alert dispatch failed",
			log.FieldUserID, e.UserID,
			log.FieldCategory, e.Category,
			log.FieldError, err)
	}
}

func buildAlert(userID int64, category string, state core.BudgetState, spent, budget core.Money) *core.Notification {
	title := "Budget Nearing Limit: " + category
	if state == core.BudgetExceeded {
		title = "Budget Exceeded: " + category
	}
	return &core.Notification{
		UserID:   userID,
		Title:    title,
		Message:  fmt.Sprintf("Spent: %s / Budget: %s", spent, budget),
		Category: category,
	}
}
