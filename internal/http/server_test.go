package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"smartspend/internal/auth"
	"smartspend/internal/core"
	"smartspend/internal/log"
	"smartspend/internal/mail"
	"smartspend/internal/otp"
	"smartspend/internal/services"
	"smartspend/internal/token"
)

// In-memory repositories backing full-stack handler tests.

type memUsers struct {
	nextID int64
	byID   map[int64]*core.User
}

func newMemUsers() *memUsers { return &memUsers{byID: make(map[int64]*core.User)} }

func (m *memUsers) Create(_ context.Context, u *core.User) error {
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.ErrEmailTaken
		}
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*core.User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*core.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m *memUsers) Update(_ context.Context, u *core.User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return core.ErrUserNotFound
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

type memBudgets struct {
	nextID int64
	byID   map[int64]*core.Budget
}

func newMemBudgets() *memBudgets { return &memBudgets{byID: make(map[int64]*core.Budget)} }

func (m *memBudgets) Create(_ context.Context, b *core.Budget) error {
	for _, existing := range m.byID {
		if existing.UserID == b.UserID && strings.EqualFold(existing.Category, b.Category) {
			return core.ErrBudgetExists
		}
	}
	m.nextID++
	b.ID = m.nextID
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}

func (m *memBudgets) GetByID(_ context.Context, id int64) (*core.Budget, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, core.ErrBudgetNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBudgets) GetByUserAndCategory(_ context.Context, userID int64, category string) (*core.Budget, error) {
	for _, b := range m.byID {
		if b.UserID == userID && strings.EqualFold(b.Category, category) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, core.ErrBudgetNotFound
}

func (m *memBudgets) ListByUser(_ context.Context, userID int64) ([]core.Budget, error) {
	var out []core.Budget
	for _, b := range m.byID {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memBudgets) Update(_ context.Context, b *core.Budget) error {
	if _, ok := m.byID[b.ID]; !ok {
		return core.ErrBudgetNotFound
	}
	cp := *b
	m.byID[b.ID] = &cp
	return nil
}

func (m *memBudgets) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return core.ErrBudgetNotFound
	}
	delete(m.byID, id)
	return nil
}

type memExpenses struct {
	nextID int64
	byID   map[int64]*core.Expense
}

func newMemExpenses() *memExpenses { return &memExpenses{byID: make(map[int64]*core.Expense)} }

func (m *memExpenses) Create(_ context.Context, e *core.Expense) error {
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.byID[e.ID] = &cp
	return nil
}

func (m *memExpenses) GetByID(_ context.Context, id int64) (*core.Expense, error) {
	e, ok := m.byID[id]
	if !ok {
		return nil, core.ErrExpenseNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memExpenses) ListByUser(_ context.Context, userID int64) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range m.byID {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memExpenses) ListRecentByUser(ctx context.Context, userID int64, limit int) ([]core.Expense, error) {
	all, _ := m.ListByUser(ctx, userID)
	sort.Slice(all, func(i, j int) bool { return all[i].Date.After(all[j].Date.Time) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memExpenses) ListByUserAndRange(ctx context.Context, userID int64, start, end core.Date) ([]core.Expense, error) {
	all, _ := m.ListByUser(ctx, userID)
	var out []core.Expense
	for _, e := range all {
		if e.Date.Before(start.Time) || e.Date.After(end.Time) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memExpenses) SumByUserAndCategory(_ context.Context, userID int64, category string) (core.Money, error) {
	var total int64
	for _, e := range m.byID {
		if e.UserID == userID && e.Type == core.TypeExpense && strings.EqualFold(e.Category, category) {
			total += e.Amount.Cents
		}
	}
	return core.Money{Cents: total}, nil
}

func (m *memExpenses) Update(_ context.Context, e *core.Expense) error {
	if _, ok := m.byID[e.ID]; !ok {
		return core.ErrExpenseNotFound
	}
	cp := *e
	m.byID[e.ID] = &cp
	return nil
}

func (m *memExpenses) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return core.ErrExpenseNotFound
	}
	delete(m.byID, id)
	return nil
}

type memNotifications struct {
	nextID int64
	stored []*core.Notification
}

func (m *memNotifications) Create(_ context.Context, n *core.Notification) error {
	m.nextID++
	n.ID = m.nextID
	cp := *n
	m.stored = append(m.stored, &cp)
	return nil
}

func (m *memNotifications) GetByID(_ context.Context, id int64) (*core.Notification, error) {
	for _, n := range m.stored {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, core.ErrNotificationNotFound
}

func (m *memNotifications) ListByUser(_ context.Context, userID int64) ([]core.Notification, error) {
	var out []core.Notification
	for _, n := range m.stored {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memNotifications) MarkRead(_ context.Context, id int64) error {
	for _, n := range m.stored {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return core.ErrNotificationNotFound
}

type testEnv struct {
	server  *Server
	users   *memUsers
	budgets *memBudgets
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := log.New(log.DefaultConfig())

	users := newMemUsers()
	budgets := newMemBudgets()
	expenses := newMemExpenses()
	notifRepo := &memNotifications{}

	tokens := token.NewService("dGVzdC1zaWduaW5nLXNlY3JldA==", time.Hour, logger)
	authSvc := auth.NewService(users, otp.NewIssuer(10*time.Minute), mail.NewLogSender(logger, "noreply@test"), tokens, true, logger)

	notifications := services.NewNotificationService(notifRepo, nil, logger)
	monitor := services.NewBudgetMonitor(budgets, expenses, notifications, logger)
	expenseSvc := services.NewExpenseService(expenses, monitor, logger)
	budgetSvc := services.NewBudgetService(budgets, logger)
	reportSvc := services.NewReportService(expenses, budgets, logger)

	srv := NewServer(Config{Addr: ":0"}, authSvc, tokens, expenseSvc, budgetSvc, notifications, reportSvc, nil, logger)
	return &testEnv{server: srv, users: users, budgets: budgets}
}

func (env *testEnv) do(t *testing.T, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "192.0.2.1:1234"
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	env.server.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) signupAndLogin(t *testing.T, email string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Ada", "email": email, "password": "hunter22",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	var out loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Token == "" {
		t.Fatal("empty token")
	}
	return out.Token
}

func TestSignupLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	tok := env.signupAndLogin(t, "ada@example.com")

	rec := env.do(t, http.MethodGet, "/api/expenses", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Imposter", "email": "ada@example.com", "password": "hunter22",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signupAndLogin(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedEndpointsRejectBadTokens(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"garbage token", "not-a-token"},
		{"tampered token", "eyJhbGciOiJIUzUxMiJ9.eyJpZCI6MX0.bad"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/expenses", tc.header, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestExpenseCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	tok := env.signupAndLogin(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/expenses", tok, map[string]any{
		"title":    "Weekly shop",
		"amount":   42.50,
		"category": "Groceries",
		"type":     "EXPENSE",
		"date":     "2026-05-12",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created expenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.Amount.Cents != 4250 {
		t.Fatalf("created = %+v", created)
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPut, fmt.Sprintf("/api/expenses/%d", created.ID), tok, map[string]any{
		"title":    "Weekly shop",
		"amount":   "50.00",
		"category": "Groceries",
		"type":     "EXPENSE",
		"date":     "2026-05-12",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body)
	}
	var updated expenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Amount.Cents != 5000 {
		t.Errorf("updated amount = %d", updated.Amount.Cents)
	}

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", created.ID), tok, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), tok, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestExpenseValidationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	tok := env.signupAndLogin(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/expenses", tok, map[string]any{
		"title":    "",
		"amount":   10.0,
		"category": "Groceries",
		"type":     "EXPENSE",
		"date":     "2026-05-12",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422, body %s", rec.Code, rec.Body)
	}
}

func TestExpenseIsolationBetweenUsers(t *testing.T) {
	env := newTestEnv(t)
	tokAda := env.signupAndLogin(t, "ada@example.com")
	tokBob := env.signupAndLogin(t, "bob@example.com")

	rec := env.do(t, http.MethodPost, "/api/expenses", tokAda, map[string]any{
		"title": "Private", "amount": 10.0, "category": "Misc", "type": "EXPENSE", "date": "2026-05-12",
	})
	var created expenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/expenses/%d", created.ID), tokBob, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("cross-user get status = %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/expenses", tokBob, nil)
	var list []expenseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("bob sees %d foreign expenses", len(list))
	}
}

func TestBudgetAlertFiresOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	tok := env.signupAndLogin(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/budgets", tok, map[string]any{
		"category": "Groceries", "amount": 100.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("budget create status = %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/api/expenses", tok, map[string]any{
		"title": "Big shop", "amount": 120.0, "category": "Groceries", "type": "EXPENSE", "date": "2026-05-12",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expense create status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/notifications", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("notifications status = %d", rec.Code)
	}
	var alerts []notificationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &alerts); err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts = %+v", alerts)
	}
	if alerts[0].Title != "Budget Exceeded: Groceries" {
		t.Errorf("title = %q", alerts[0].Title)
	}

	// mark it read
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", alerts[0].ID), tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read status = %d", rec.Code)
	}
	var read notificationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &read); err != nil {
		t.Fatal(err)
	}
	if !read.Read {
		t.Error("notification not marked read")
	}
}

func TestBudgetDuplicateOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	tok := env.signupAndLogin(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/budgets", tok, map[string]any{
		"category": "Travel", "amount": 100.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatal("first create failed")
	}
	rec = env.do(t, http.MethodPost, "/api/budgets", tok, map[string]any{
		"category": "travel", "amount": 50.0,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestReportsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	tok := env.signupAndLogin(t, "ada@example.com")

	for _, row := range []map[string]any{
		{"title": "Salary", "amount": 3000.0, "category": "Salary", "type": "INCOME", "date": "2026-05-25"},
		{"title": "Rent", "amount": 900.0, "category": "Housing", "type": "EXPENSE", "date": "2026-05-01"},
	} {
		if rec := env.do(t, http.MethodPost, "/api/expenses", tok, row); rec.Code != http.StatusCreated {
			t.Fatalf("seed status = %d", rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/reports/income-expense?year=2026&month=5", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var summary struct {
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Income != 3000 || summary.Expense != 900 || summary.Balance != 2100 {
		t.Errorf("summary = %+v", summary)
	}

	rec = env.do(t, http.MethodGet, "/api/reports/trend?year=2026", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trend status = %d", rec.Code)
	}
	var trend []struct {
		Month string `json:"month"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &trend); err != nil {
		t.Fatal(err)
	}
	if len(trend) != 12 {
		t.Errorf("trend months = %d", len(trend))
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	// No database wired in tests, readiness must fail.
	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz status = %d, want 503", rec.Code)
	}
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t)

	var last int
	for i := 0; i < 40; i++ {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "ada@example.com", "password": "wrong",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, want 429", last)
	}
}
