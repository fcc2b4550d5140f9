package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"smartspend/internal/core"
	"smartspend/internal/log"
)

type (
	// DashboardSummary carries the four top-line cards.
	DashboardSummary struct {
		TotalExpenses core.Money `json:"totalExpenses"`
		TotalIncome   core.Money `json:"totalIncome"`
		TotalBudget   core.Money `json:"totalBudget"`
		Remaining     core.Money `json:"remaining"`
	}

	CategorySummary struct {
		Category string     `json:"category"`
		Total    core.Money `json:"total"`
	}

	MonthlySummary struct {
		Month        string            `json:"month"`
		TotalExpense core.Money        `json:"totalExpense"`
		TotalIncome  core.Money        `json:"totalIncome"`
		Categories   []CategorySummary `json:"categories"`
	}

	IncomeExpenseSummary struct {
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
		Balance core.Money `json:"balance"`
	}

	MonthTrend struct {
		Month   string     `json:"month"`
		Expense core.Money `json:"expense"`
		Income  core.Money `json:"income"`
	}
)

// ReportService aggregates expenses and budgets into read-only
// summaries. All aggregation happens over the owner's rows only.
type ReportService struct {
	expenses core.ExpenseRepository
	budgets  core.BudgetRepository
	logger   *log.Logger
}

func NewReportService(expenses core.ExpenseRepository, budgets core.BudgetRepository, logger *log.Logger) *ReportService {
	return &ReportService{
		expenses: expenses,
		budgets:  budgets,
		logger:   logger.WithComponent(log.ComponentReport),
	}
}

// Dashboard sums all-time income, expense and budget totals. The two
// queries are independent so they run concurrently.
func (s *ReportService) Dashboard(ctx context.Context, userID int64) (DashboardSummary, error) {
	var (
		rows    []core.Expense
		budgets []core.Budget
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.expenses.ListByUser(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.budgets.ListByUser(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardSummary{}, err
	}

	var out DashboardSummary
	for _, e := range rows {
		switch e.Type {
		case core.TypeExpense:
			out.TotalExpenses.Cents += e.Amount.Cents
		case core.TypeIncome:
			out.TotalIncome.Cents += e.Amount.Cents
		}
	}
	for _, b := range budgets {
		out.TotalBudget.Cents += b.Amount.Cents
	}

	out.Remaining.Cents = out.TotalBudget.Cents - out.TotalExpenses.Cents
	return out, nil
}

// Monthly builds the per-month summary with a category breakdown over
// every row (income and expense) of that month.
func (s *ReportService) Monthly(ctx context.Context, userID int64, year, month int) (MonthlySummary, error) {
	rows, err := s.monthRows(ctx, userID, year, month)
	if err != nil {
		return MonthlySummary{}, err
	}

	out := MonthlySummary{Month: monthKey(year, month)}
	byCategory := make(map[string]int64)
	for _, e := range rows {
		switch e.Type {
		case core.TypeExpense:
			out.TotalExpense.Cents += e.Amount.Cents
		case core.TypeIncome:
			out.TotalIncome.Cents += e.Amount.Cents
		}
		byCategory[e.Category] += e.Amount.Cents
	}
	out.Categories = sortedCategories(byCategory)
	return out, nil
}

// Categories returns the month's per-category totals.
func (s *ReportService) Categories(ctx context.Context, userID int64, year, month int) ([]CategorySummary, error) {
	rows, err := s.monthRows(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]int64)
	for _, e := range rows {
		byCategory[e.Category] += e.Amount.Cents
	}
	return sortedCategories(byCategory), nil
}

// IncomeExpense returns the month's income-vs-expense totals.
func (s *ReportService) IncomeExpense(ctx context.Context, userID int64, year, month int) (IncomeExpenseSummary, error) {
	rows, err := s.monthRows(ctx, userID, year, month)
	if err != nil {
		return IncomeExpenseSummary{}, err
	}

	var out IncomeExpenseSummary
	for _, e := range rows {
		switch e.Type {
		case core.TypeExpense:
			out.Expense.Cents += e.Amount.Cents
		case core.TypeIncome:
			out.Income.Cents += e.Amount.Cents
		}
	}
	out.Balance.Cents = out.Income.Cents - out.Expense.Cents
	return out, nil
}

// Trend returns twelve per-month income/expense pairs for the year, in
// calendar order.
func (s *ReportService) Trend(ctx context.Context, userID int64, year int) ([]MonthTrend, error) {
	out := make([]MonthTrend, 0, 12)
	for month := 1; month <= 12; month++ {
		rows, err := s.monthRows(ctx, userID, year, month)
		if err != nil {
			return nil, err
		}

		t := MonthTrend{Month: monthKey(year, month)}
		for _, e := range rows {
			switch e.Type {
			case core.TypeExpense:
				t.Expense.Cents += e.Amount.Cents
			case core.TypeIncome:
				t.Income.Cents += e.Amount.Cents
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *ReportService) monthRows(ctx context.Context, userID int64, year, month int) ([]core.Expense, error) {
	start := core.NewDate(year, month, 1)
	end := core.Date{Time: time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)}
	return s.expenses.ListByUserAndRange(ctx, userID, start, end)
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

func sortedCategories(byCategory map[string]int64) []CategorySummary {
	out := make([]CategorySummary, 0, len(byCategory))
	for category, cents := range byCategory {
		out = append(out, CategorySummary{Category: category, Total: core.Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
