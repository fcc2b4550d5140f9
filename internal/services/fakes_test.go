package services

import (
	"context"
	"sort"
	"strings"

	"smartspend/internal/core"
	"smartspend/internal/log"
)

// In-memory fakes shared by the service tests.

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

type fakeBudgetRepo struct {
	nextID  int64
	budgets map[int64]*core.Budget
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{budgets: make(map[int64]*core.Budget)}
}

func (r *fakeBudgetRepo) Create(_ context.Context, b *core.Budget) error {
	for _, existing := range r.budgets {
		if existing.UserID == b.UserID && strings.EqualFold(existing.Category, b.Category) {
			return core.ErrBudgetExists
		}
	}
	r.nextID++
	b.ID = r.nextID
	cp := *b
	r.budgets[b.ID] = &cp
	return nil
}

func (r *fakeBudgetRepo) GetByID(_ context.Context, id int64) (*core.Budget, error) {
	b, ok := r.budgets[id]
	if !ok {
		return nil, core.ErrBudgetNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBudgetRepo) GetByUserAndCategory(_ context.Context, userID int64, category string) (*core.Budget, error) {
	for _, b := range r.budgets {
		if b.UserID == userID && strings.EqualFold(b.Category, category) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, core.ErrBudgetNotFound
}

func (r *fakeBudgetRepo) ListByUser(_ context.Context, userID int64) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range r.budgets {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBudgetRepo) Update(_ context.Context, b *core.Budget) error {
	if _, ok := r.budgets[b.ID]; !ok {
		return core.ErrBudgetNotFound
	}
	cp := *b
	r.budgets[b.ID] = &cp
	return nil
}

func (r *fakeBudgetRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.budgets[id]; !ok {
		return core.ErrBudgetNotFound
	}
	delete(r.budgets, id)
	return nil
}

type fakeExpenseRepo struct {
	nextID     int64
	expenses   map[int64]*core.Expense
	failSumErr error
}

func newFakeExpenseRepo() *fakeExpenseRepo {
	return &fakeExpenseRepo{expenses: make(map[int64]*core.Expense)}
}

func (r *fakeExpenseRepo) Create(_ context.Context, e *core.Expense) error {
	r.nextID++
	e.ID = r.nextID
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *fakeExpenseRepo) GetByID(_ context.Context, id int64) (*core.Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return nil, core.ErrExpenseNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeExpenseRepo) ListByUser(_ context.Context, userID int64) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range r.expenses {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeExpenseRepo) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	all, _ := r.ListByUser(ctx, userID)
	sort.Slice(all, func(i, j int) bool { return all[i].Date.After(all[j].Date.Time) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeExpenseRepo) ListByUserAndRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error) {
	all, _ := r.ListByUser(ctx, userID)
	var out []core.Expense
	for _, e := range all {
		if e.Date.Before(start.Time) || e.Date.After(end.Time) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeExpenseRepo) SumByUserAndCategory(_ context.Context, userID int64, category string) (core.Money, error) {
	if r.failSumErr != nil {
		return core.Money{}, r.failSumErr
	}
	var total int64
	for _, e := range r.expenses {
		if e.UserID == userID && e.Type == core.TypeExpense && strings.EqualFold(e.Category, category) {
			total += e.Amount.Cents
		}
	}
	return core.Money{Cents: total}, nil
}

func (r *fakeExpenseRepo) Update(_ context.Context, e *core.Expense) error {
	if _, ok := r.expenses[e.ID]; !ok {
		return core.ErrExpenseNotFound
	}
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *fakeExpenseRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.expenses[id]; !ok {
		return core.ErrExpenseNotFound
	}
	delete(r.expenses, id)
	return nil
}

type fakeNotificationRepo struct {
	nextID    int64
	stored    []*core.Notification
	createErr error
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *core.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	n.ID = r.nextID
	cp := *n
	r.stored = append(r.stored, &cp)
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id int64) (*core.Notification, error) {
	for _, n := range r.stored {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, core.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID int64) ([]core.Notification, error) {
	var out []core.Notification
	for _, n := range r.stored {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id int64) error {
	for _, n := range r.stored {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return core.ErrNotificationNotFound
}

type fakePublisher struct {
	published []*core.Notification
	err       error
}

func (p *fakePublisher) PublishAlert(_ context.Context, n *core.Notification) error {
	if p.err != nil {
		return p.err
	}
	cp := *n
	p.published = append(p.published, &cp)
	return nil
}
