// Package handler exposes the finance services as a JSON API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/billbatista/acasinha-finance/category"
	"github.com/billbatista/acasinha-finance/currency"
	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/billbatista/acasinha-finance/expense"
	"github.com/billbatista/acasinha-finance/importer"
	"github.com/billbatista/acasinha-finance/ledger"
	"github.com/billbatista/acasinha-finance/middleware"
	"github.com/billbatista/acasinha-finance/project"
	"github.com/billbatista/acasinha-finance/session"
	"github.com/billbatista/acasinha-finance/user"
	"github.com/billbatista/acasinha-finance/workspace"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodySize = 1 << 20

var (
	errBadRequest   = errors.New("invalid request body")
	errInvalidID    = errors.New("invalid id")
	errInvalidLogin = errors.New("invalid email or password")
	errDemoProfile  = errors.New("the demo profile can't be changed")
)

// SheetsReader reads a range of cells from a spreadsheet.
type SheetsReader interface {
	Read(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
}

type Handler struct {
	users        user.Repository
	sessions     session.Repository
	workspaces   *workspace.Manager
	events       eventlogger.Recorder
	sheets       SheetsReader
	cookieSecure bool
}

// New creates the API handler. sheets may be nil when Google Sheets import is
// not configured.
func New(users user.Repository, sessions session.Repository, workspaces *workspace.Manager, events eventlogger.Recorder, sheets SheetsReader, cookieSecure bool) *Handler {
	if events == nil {
		events = eventlogger.Discard
	}
	return &Handler{
		users:        users,
		sessions:     sessions,
		workspaces:   workspaces,
		events:       events,
		sheets:       sheets,
		cookieSecure: cookieSecure,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.AuthMiddleware(h.workspaces))

	router.Get("/health", h.health)
	router.Post("/user/register", h.register)
	router.Post("/user/login", h.login)
	router.Post("/user/demo", h.startDemo)
	router.Post("/user/logout", h.logout)

	router.Route("/api", func(r chi.Router) {
		r.Get("/currencies", h.currencies)
		r.Get("/import/template", h.importTemplate)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			h.protectedRoutes(r)
		})
	})

	return router
}

func (h *Handler) protectedRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Patch("/me", h.updateProfile)
	r.Get("/dashboard", h.dashboard)
	r.Get("/convert", h.convert)
	r.Get("/preferences/currency", h.getCurrency)
	r.Put("/preferences/currency", h.setCurrency)

	r.Route("/groups", func(r chi.Router) {
		r.Get("/", h.listGroups)
		r.Post("/", h.createGroup)
		r.Get("/{id}", h.getGroup)
		r.Patch("/{id}", h.renameGroup)
		r.Delete("/{id}", h.deleteGroup)
		r.Post("/{id}/members", h.addMembers)
		r.Post("/{id}/expenses", h.recordSharedExpense)
		r.Get("/{id}/summary", h.groupSummary)
		r.Post("/{id}/reconcile", h.reconcileGroup)
	})

	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.listExpenses)
		r.Post("/", h.createExpense)
		r.Put("/{id}", h.updateExpense)
		r.Delete("/{id}", h.deleteExpense)
	})

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.listProjects)
		r.Post("/", h.createProject)
		r.Get("/{id}", h.getProject)
		r.Put("/{id}", h.updateProject)
		r.Delete("/{id}", h.deleteProject)
		r.Get("/{id}/entries", h.listEntries)
		r.Post("/{id}/entries", h.addEntry)
		r.Put("/{id}/entries/{entryID}", h.updateEntry)
		r.Delete("/{id}/entries/{entryID}", h.deleteEntry)
	})

	r.Get("/categories", h.listCategories)
	r.Get("/categories/resolve", h.resolveCategory)
	r.Post("/categories", h.addCategory)
	r.Delete("/categories/{name}", h.removeCategory)

	r.Post("/import/preview", h.importPreview)
	r.Post("/import/commit", h.importCommit)
}

// scope returns the caller and the services holding their data. It writes the
// error response itself when it fails.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (*workspace.Services, session.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, session.ErrInvalidSession)
		return nil, session.Identity{}, false
	}
	s, err := h.workspaces.For(id)
	if err != nil {
		middleware.ClearSessionCookie(w)
		writeError(w, err)
		return nil, session.Identity{}, false
	}
	return s, id, true
}

// reportingCurrency is the currency query parameter, or the user's
// preference when it is absent.
func reportingCurrency(r *http.Request, s *workspace.Services, userID uuid.UUID) (currency.Code, error) {
	if raw := r.URL.Query().Get("currency"); raw != "" {
		return currency.Parse(raw)
	}
	return s.Preferences.Currency(r.Context(), userID)
}

func (h *Handler) log(actor uuid.UUID, eventType string, data any) {
	h.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
		eventlogger.WithActor(actor),
	))
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

var statuses = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{
		errBadRequest, errInvalidID,
		currency.ErrUnknownCurrency, currency.ErrNonPositiveAmount,
		ledger.ErrEmptyName, ledger.ErrEmptyDescription, ledger.ErrDescriptionTooLong, ledger.ErrNoMembers, ledger.ErrInvalidPayer,
		expense.ErrMissingDate, expense.ErrInvalidDate, expense.ErrEmptyCategory, expense.ErrEmptyDescription, expense.ErrDescriptionTooLong,
		project.ErrEmptyName, project.ErrNonPositiveBudget, project.ErrMissingDate, project.ErrInvalidDate,
		project.ErrEmptyDescription, project.ErrDescriptionTooLong,
		category.ErrEmptyName, category.ErrNameTooLong, category.ErrDefaultCategory,
		user.ErrInvalidEmail, user.ErrBlankPassword,
	}},
	{http.StatusForbidden, []error{errDemoProfile}},
	{http.StatusUnauthorized, []error{session.ErrInvalidSession, session.ErrExpiredSession, errInvalidLogin}},
	{http.StatusNotFound, []error{
		ledger.ErrGroupNotFound, ledger.ErrMemberNotFound,
		expense.ErrNotFound, project.ErrNotFound, project.ErrEntryNotFound, category.ErrNotFound,
	}},
	{http.StatusConflict, []error{user.ErrEmailExists, category.ErrExists, ledger.ErrBalanceConflict}},
	{http.StatusServiceUnavailable, []error{importer.ErrSheetsDisabled}},
}

func statusFor(err error) int {
	for _, s := range statuses {
		for _, target := range s.errs {
			if errors.Is(err, target) {
				return s.status
			}
		}
	}
	return http.StatusInternalServerError
}

// writeError maps known errors to their status code. Anything else is logged
// and reported as a 500 without details.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
