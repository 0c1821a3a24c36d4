package api

import (
	"context"
	"net/http"

	"github.com/fadedpez/inkwell/internal/types"
)

type contextKey string

const userIDKey contextKey = "userID"

// requireUser extracts the caller identity from the X-User-ID header and
// rejects requests without one. Identity verification (sessions, tokens)
// happens at the edge; this service trusts the header the gateway sets.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			s.writeError(w, types.NewPlatformError(types.ErrUnauthenticated, "missing X-User-ID header"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the caller identity set by requireUser. Handlers outside
// the authenticated group get an empty string.
func userFrom(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}
