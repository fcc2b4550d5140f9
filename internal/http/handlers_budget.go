package http

import (
	"net/http"

	"smartspend/internal/core"
)

type budgetRequest struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

type budgetResponse struct {
	ID       int64      `json:"id"`
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
}

func toBudgetResponse(b *core.Budget) budgetResponse {
	return budgetResponse{ID: b.ID, Category: b.Category, Amount: b.Amount}
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := s.budgets.Create(r.Context(), &core.Budget{
		UserID:   userID,
		Category: sanitizeInput(req.Category),
		Amount:   req.Amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := s.budgets.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]budgetResponse, len(list))
	for i := range list {
		out[i] = toBudgetResponse(&list[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	b, err := s.budgets.Get(r.Context(), id, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updated, err := s.budgets.Update(r.Context(), id, userID, &core.Budget{
		Category: sanitizeInput(req.Category),
		Amount:   req.Amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.budgets.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
