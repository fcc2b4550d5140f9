package http

import (
	"net/http"
	"strings"
	"time"

	"smartspend/internal/core"
	"smartspend/internal/services"
)

type expenseRequest struct {
	Title       string     `json:"title"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description"`
}

type expenseResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Amount      core.Money `json:"amount"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Date        core.Date  `json:"date"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toExpenseResponse(e *core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Title:       e.Title,
		Amount:      e.Amount,
		Category:    e.Category,
		Type:        string(e.Type),
		Date:        e.Date,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func toExpenseResponses(list []core.Expense) []expenseResponse {
	out := make([]expenseResponse, len(list))
	for i := range list {
		out[i] = toExpenseResponse(&list[i])
	}
	return out
}

func (req *expenseRequest) toDomain(userID int64) *core.Expense {
	typ := core.ExpenseType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if req.Type == "" {
		typ = core.TypeExpense
	}
	return &core.Expense{
		UserID:      userID,
		Title:       sanitizeInput(req.Title),
		Amount:      req.Amount,
		Category:    sanitizeInput(req.Category),
		Type:        typ,
		Date:        req.Date,
		Description: sanitizeInput(req.Description),
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := s.expenses.Create(r.Context(), req.toDomain(userID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := s.expenses.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(list))
}

func (s *Server) handleRecentExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := s.expenses.Recent(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(list))
}

func (s *Server) handleFilterExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	params, err := filterParamsFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	list, err := s.expenses.Filter(r.Context(), userID, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponses(list))
}

func filterParamsFromQuery(r *http.Request) (services.FilterParams, error) {
	q := r.URL.Query()
	p := services.FilterParams{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}

	if v := strings.TrimSpace(q.Get("min")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return p, err
		}
		p.MinCents = &cents
	}
	if v := strings.TrimSpace(q.Get("max")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return p, err
		}
		p.MaxCents = &cents
	}
	if v := strings.TrimSpace(q.Get("start")); v != "" {
		day, err := parseDate(v)
		if err != nil {
			return p, core.ErrInvalidDate
		}
		p.Start = &day
	}
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		day, err := parseDate(v)
		if err != nil {
			return p, core.ErrInvalidDate
		}
		p.End = &day
	}
	return p, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: parsedTime}, nil
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	e, err := s.expenses.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req expenseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := s.expenses.Update(r.Context(), id, userID, req.toDomain(userID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.expenses.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
