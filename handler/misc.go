package handler

import (
	"net/http"

	"github.com/billbatista/acasinha-finance/currency"
	"github.com/shopspring/decimal"
)

type currencyView struct {
	currency.Info
	Rate decimal.Decimal `json:"rate"`
}

func (h *Handler) currencies(w http.ResponseWriter, r *http.Request) {
	views := make([]currencyView, 0, len(currency.Codes()))
	for _, code := range currency.Codes() {
		info, err := code.Info()
		if err != nil {
			writeError(w, err)
			return
		}
		views = append(views, currencyView{Info: info, Rate: currency.DefaultRates[code]})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		writeError(w, currency.ErrNonPositiveAmount)
		return
	}
	from, err := currency.Parse(q.Get("from"))
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := currency.Parse(q.Get("to"))
	if err != nil {
		writeError(w, err)
		return
	}
	converted, err := currency.Convert(amount, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	m := currency.NewMoney(converted, to)
	writeJSON(w, http.StatusOK, map[string]any{
		"amount":    m.Amount,
		"currency":  m.Currency,
		"formatted": m.Format(),
	})
}

func (h *Handler) getCurrency(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	code, err := s.Preferences.Currency(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]currency.Code{"currency": code})
}

func (h *Handler) setCurrency(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var in struct {
		Currency string `json:"currency"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	code, err := currency.Parse(in.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Preferences.SetCurrency(r.Context(), id.UserID, code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]currency.Code{"currency": code})
}
