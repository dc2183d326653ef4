package handler

import (
	"net/http"

	"github.com/billbatista/acasinha-finance/project"
)

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	code, err := reportingCurrency(r, s, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.Projects.List(r.Context(), id.UserID, code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	var in project.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.Projects.Create(r.Context(), id.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	code, err := reportingCurrency(r, s, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := s.Projects.Get(r.Context(), id.UserID, projectID, code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in project.Input
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.Projects.Update(r.Context(), id.UserID, projectID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.Projects.Delete(r.Context(), id.UserID, projectID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	code, err := reportingCurrency(r, s, id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := s.Projects.Get(r.Context(), id.UserID, projectID, code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d.Entries)
}

// entryResult is an entry mutation's response: the entry and the project
// with its recomputed spent amount.
type entryResult struct {
	Entry   *project.Entry   `json:"entry,omitempty"`
	Project *project.Project `json:"project"`
}

func (h *Handler) addEntry(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var in project.EntryInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	e, p, err := s.Projects.AddEntry(r.Context(), id.UserID, projectID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entryResult{Entry: e, Project: p})
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	entryID, err := pathID(r, "entryID")
	if err != nil {
		writeError(w, err)
		return
	}
	var in project.EntryInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	e, p, err := s.Projects.UpdateEntry(r.Context(), id.UserID, projectID, entryID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResult{Entry: e, Project: p})
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	s, id, ok := h.scope(w, r)
	if !ok {
		return
	}
	projectID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	entryID, err := pathID(r, "entryID")
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := s.Projects.DeleteEntry(r.Context(), id.UserID, projectID, entryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResult{Project: p})
}
