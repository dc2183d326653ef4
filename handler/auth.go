package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/billbatista/acasinha-finance/eventlogger"
	"github.com/billbatista/acasinha-finance/middleware"
	"github.com/billbatista/acasinha-finance/session"
	"github.com/billbatista/acasinha-finance/user"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.events.Log(eventlogger.NewEvent(
		eventlogger.WithType("health_request"),
		eventlogger.WithData(map[string]string{
			"message":     "ok",
			"http_status": strconv.Itoa(http.StatusOK),
		}),
	))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	registered, err := h.users.Register(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.sessions.Create(r.Context(), registered.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setCookie(w, sess)

	h.log(registered.ID, "user.registered", map[string]string{
		"user_id":    registered.ID.String(),
		"email":      registered.Email,
		"session_id": sess.ID.String(),
	})
	writeJSON(w, http.StatusCreated, registered)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	userdb, err := h.users.GetByEmail(r.Context(), in.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	if userdb == nil || h.users.VerifyPassword(userdb.PasswordHash, in.Password) != nil {
		writeError(w, errInvalidLogin)
		return
	}

	sess, err := h.sessions.Create(r.Context(), userdb.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setCookie(w, sess)

	h.log(userdb.ID, "user.logged_in", map[string]string{
		"user_id":    userdb.ID.String(),
		"email":      userdb.Email,
		"session_id": sess.ID.String(),
	})
	writeJSON(w, http.StatusOK, userdb)
}

func (h *Handler) startDemo(w http.ResponseWriter, r *http.Request) {
	token, err := h.workspaces.StartDemo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, 0, h.cookieSecure)
	h.log(user.Demo.ID, "user.demo_started", map[string]int{"active_demos": h.workspaces.DemoCount()})
	writeJSON(w, http.StatusCreated, session.Identity{UserID: user.Demo.ID, Email: user.Demo.Email, Demo: true})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := middleware.GetIdentity(r.Context()); ok {
		if id.Demo {
			h.workspaces.EndDemo(id.Token)
		} else if err := h.sessions.Delete(r.Context(), id.Token); err != nil {
			writeError(w, err)
			return
		}
		h.log(id.UserID, "user.logged_out", map[string]bool{"demo": id.Demo})
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())
	writeJSON(w, http.StatusOK, id)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetIdentity(r.Context())
	if id.Demo {
		writeError(w, errDemoProfile)
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if err := decode(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		writeError(w, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}

	if err := h.users.UpdateName(r.Context(), id.UserID, name); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.users.GetByID(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.log(id.UserID, "user.name_updated", map[string]string{
		"user_id": id.UserID.String(),
		"name":    name,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) setCookie(w http.ResponseWriter, sess *session.Session) {
	middleware.SetSessionCookie(w, sess.Token, int(time.Until(sess.ExpiresAt).Seconds()), h.cookieSecure)
}
