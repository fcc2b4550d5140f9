package http

import (
	"context"
	"net/http"
	"strings"

	"smartspend/internal/log"
	"smartspend/internal/token"
)

type contextKey string

const identityKey contextKey = "identity"

// requireAuth rejects requests without a valid bearer token and stashes
// the decoded identity in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		identity, ok := s.tokens.Decode(raw)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
			return
		}

		logger := log.FromContext(r.Context()).With(log.FieldUserID, identity.UserID)
		ctx := context.WithValue(r.Context(), log.LoggerContextKey, logger)
		ctx = context.WithValue(ctx, identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}

// callerIdentity returns the authenticated identity stored by requireAuth.
func callerIdentity(r *http.Request) (token.Identity, bool) {
	identity, ok := r.Context().Value(identityKey).(token.Identity)
	return identity, ok
}

// callerID returns the authenticated user id, or writes a 401 and
// returns false when the handler was reached without authentication.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	identity, ok := callerIdentity(r)
	if !ok || identity.UserID == 0 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return 0, false
	}
	return identity.UserID, true
}
