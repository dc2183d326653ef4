package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	categories, err := s.Categories.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) addCategory(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.Categories.Add(r.Context(), id.UserID, in.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) removeCategory(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	if err := s.Categories.Remove(r.Context(), id.UserID, chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveCategory previews which category free text would be filed under.
func (h *Handler) resolveCategory(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	match, err := s.Categories.Resolve(r.Context(), id.UserID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}
