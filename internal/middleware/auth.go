package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorestars/internal/auth"
	"github.com/dukerupert/chorestars/internal/store"
)

// ActorHeader carries the external actor identity (the chat user id) on
// every API request.
const ActorHeader = "X-Actor-ID"

// ResolveActor looks up the actor's active identity and stores it in the
// request context. Requests without an actor are rejected. An actor with no
// session passes through with the zero identity so it can log in.
func ResolveActor(sessions *store.SessionStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actor == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing "+ActorHeader+" header")
				return
			}

			id, err := sessions.GetActive(actor)
			if err != nil {
				logger.Error("resolve actor", "actor", actor, "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{ActorID: actor, Identity: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireParent lets through only actors acting as the parent.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		switch {
		case !ok || ac.Identity.Role == "":
			writeJSONError(w, http.StatusUnauthorized, "login required")
		case !ac.Identity.IsParent():
			writeJSONError(w, http.StatusForbidden, "parent only")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// RequireChild lets through only actors acting as a child.
func RequireChild(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		switch {
		case !ok || ac.Identity.Role == "":
			writeJSONError(w, http.StatusUnauthorized, "login required")
		case !ac.Identity.IsChild():
			writeJSONError(w, http.StatusForbidden, "child only")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// RequireIdentity lets through any logged-in actor.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok || ac.Identity.Role == "" {
			writeJSONError(w, http.StatusUnauthorized, "login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
