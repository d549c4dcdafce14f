package handler

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/dukerupert/chorestars/internal/auth"
	"github.com/dukerupert/chorestars/internal/model"
	"github.com/dukerupert/chorestars/internal/roster"
	"github.com/dukerupert/chorestars/internal/store"
)

type AuthHandler struct {
	sessions      *store.SessionStore
	authenticator *auth.Authenticator
	roster        roster.Roster
	logger        *slog.Logger
}

func NewAuthHandler(sessions *store.SessionStore, authenticator *auth.Authenticator, r roster.Roster, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, authenticator: authenticator, roster: r, logger: logger}
}

type loginRequest struct {
	Password string `json:"password"`
	Child    string `json:"child"`
}

type meResponse struct {
	ActorID           string         `json:"actor_id"`
	Identity          model.Identity `json:"identity"`
	AvailableChildren []string       `json:"available_children"`
}

// Login switches the actor to the role the password belongs to. When child
// is given the password must be that child's.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	id, ok := h.authenticator.Authenticate(req.Password)
	if want := roster.Normalize(req.Child); ok && want != "" && id.ChildName != want {
		ok = false
	}
	if !ok || (id.IsChild() && !h.roster.Has(id.ChildName)) {
		h.logger.Warn("login rejected", "actor", auth.ActorID(r.Context()))
		writeError(w, http.StatusUnauthorized, "incorrect password")
		return
	}

	actor := auth.ActorID(r.Context())
	if err := h.sessions.SetActive(actor, id); err != nil {
		h.logger.Error("set active session", "actor", actor, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	h.logger.Info("actor logged in", "actor", actor, "role", id.Role, "child", id.ChildName)
	writeJSON(w, http.StatusOK, id)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorID(r.Context())
	if err := h.sessions.SetActive(actor, model.Identity{}); err != nil {
		h.logger.Error("clear session", "actor", actor, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to end session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	available, err := h.sessions.AvailableChildren(ac.ActorID)
	if err != nil {
		h.logger.Error("list available children", "actor", ac.ActorID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if available == nil {
		available = []string{}
	}
	writeJSON(w, http.StatusOK, meResponse{
		ActorID:           ac.ActorID,
		Identity:          ac.Identity,
		AvailableChildren: available,
	})
}

type selectChildRequest struct {
	Child string `json:"child"`
}

// SelectChild switches the actor to a child it has logged in as before,
// without asking for the password again.
func (h *AuthHandler) SelectChild(w http.ResponseWriter, r *http.Request) {
	var req selectChildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	child := roster.Normalize(req.Child)
	if !h.roster.Has(child) {
		writeError(w, http.StatusBadRequest, "unknown child")
		return
	}

	actor := auth.ActorID(r.Context())
	available, err := h.sessions.AvailableChildren(actor)
	if err != nil {
		h.logger.Error("list available children", "actor", actor, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if !slices.Contains(available, child) {
		writeError(w, http.StatusForbidden, "log in as this child first")
		return
	}

	id := model.Identity{Role: model.RoleChild, ChildName: child}
	if err := h.sessions.SetActive(actor, id); err != nil {
		h.logger.Error("set active session", "actor", actor, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to switch child")
		return
	}
	writeJSON(w, http.StatusOK, id)
}
