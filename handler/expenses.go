package handler

import (
	"net/http"

	"github.com/billbatista/acasinha-finance/expense"
)

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	expenses, err := s.Expenses.List(r.Context(), id.UserID, expense.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Month:    q.Get("month"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var in expense.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	e, err := s.Expenses.Create(r.Context(), id.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	expenseID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in expense.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	e, err := s.Expenses.Update(r.Context(), id.UserID, expenseID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	expenseID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Expenses.Delete(r.Context(), id.UserID, expenseID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	code, err := reportingCurrency(r, s, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := s.Dashboard(r.Context(), id.UserID, code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
