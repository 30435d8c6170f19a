package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "userID"

// requireSession authenticates the request with a bearer session token and
// stores the caller's user ID in the request context.
func (a *API) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, errors.New("bearer token required"))
			return
		}

		ctx, cancel := withTimeout(r.Context())
		defer cancel()

		session, err := a.store.GetSessionByToken(ctx, strings.TrimSpace(token))
		switch {
		case errors.Is(err, ErrSessionInvalid):
			respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
			return
		case err != nil:
			// A store failure is not the caller's fault; telling them the
			// session is bad would make them discard a usable token.
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		if !session.Valid(time.Now().UTC()) {
			respondError(w, http.StatusUnauthorized, ErrSessionInvalid)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), session.UserID)))
	})
}

func withUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// callerID returns the authenticated user's ID from the request context.
func callerID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}
