package handler

import (
	"net/http"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type groupInput struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Members  []string `json:"members"`
}

type sharedExpenseInput struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      uuid.UUID       `json:"paid_by"`
}

// summaryView is a group summary with balances converted and formatted in
// the reporting currency.
type summaryView struct {
	ledger.Summary
	DisplayCurrency currency.Code        `json:"display_currency"`
	Display         map[uuid.UUID]string `json:"display"`
	DisplayTotal    string               `json:"display_total"`
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	groups, err := s.Ledger.ListGroups(r.Context(), id.UserID, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var in groupInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	code := currency.USD
	if in.Currency != "" {
		var err error
		if code, err = currency.Parse(in.Currency); err != nil {
			writeError(w, err)
			return
		}
	}
	g, err := s.Ledger.CreateGroup(r.Context(), id.UserID, in.Name, code, in.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := s.Ledger.GetGroup(r.Context(), id.UserID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) renameGroup(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in groupInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Ledger.RenameGroup(r.Context(), id.UserID, groupID, in.Name); err != nil {
		writeError(w, err)
		return
	}
	g, err := s.Ledger.GetGroup(r.Context(), id.UserID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) deleteGroup(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Ledger.DeleteGroup(r.Context(), id.UserID, groupID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addMembers(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in groupInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	members, err := s.Ledger.AddMembers(r.Context(), id.UserID, groupID, in.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, members)
}

func (h *Handler) recordSharedExpense(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in sharedExpenseInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	e, changes, err := s.Ledger.RecordSharedExpense(r.Context(), id.UserID, groupID, in.Description, in.Amount, in.PaidBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"expense": e,
		"changes": changes,
	})
}

func (h *Handler) groupSummary(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	sum, err := s.Ledger.Summary(r.Context(), id.UserID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	code, err := reportingCurrency(r, s, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	view := summaryView{
		Summary:         sum,
		DisplayCurrency: code,
		Display:         make(map[uuid.UUID]string, len(sum.Balances)),
	}
	for memberID, balance := range sum.Balances {
		converted, err := currency.ConvertSigned(balance, sum.Currency, code)
		if err != nil {
			writeError(w, err)
			return
		}
		view.Display[memberID] = currency.FormatMoney(converted, code)
	}
	total, err := currency.ConvertSigned(sum.TotalExpenses, sum.Currency, code)
	if err != nil {
		writeError(w, err)
		return
	}
	view.DisplayTotal = currency.FormatMoney(total, code)
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) reconcileGroup(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	groupID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	drift, err := s.Ledger.Reconcile(r.Context(), id.UserID, groupID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drift": drift})
}
