package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gyanpath/lms-backend/internal/services"
	"github.com/gyanpath/lms-backend/internal/store"
)

type ctxKey int

const sessionCtxKey ctxKey = iota

// SessionCookieName is the cookie carrying the bearer session token.
const SessionCookieName = "token"

// WithSession returns a context carrying the verified session identity.
func WithSession(ctx context.Context, s *services.Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

// SessionFrom extracts the verified session identity set by Auth.
func SessionFrom(ctx context.Context) (*services.Session, bool) {
	s, ok := ctx.Value(sessionCtxKey).(*services.Session)
	return s, ok
}

// tokenFromRequest reads the session token from the "token" cookie, falling
// back to an Authorization: Bearer header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// Auth verifies the session token and stores the identity in the request
// context. Requests without a valid token get 401 with the uniform envelope.
func Auth(sessions *services.SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				unauthorized(w, "Please log in to continue")
				return
			}

			session, err := sessions.Verify(tokenStr)
			if err != nil {
				unauthorized(w, "Session is invalid or has expired, please log in again")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireRole gates a route on the session role. Use after Auth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok {
				unauthorized(w, "Please log in to continue")
				return
			}
			if session.Role != role {
				forbidden(w, "You do not have permission to access this route")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSubscriber allows admins and users whose subscription is currently
// active. Status is read from the store, not the token, so a cancellation
// takes effect before the session expires. Use after Auth.
func RequireSubscriber(users store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok {
				unauthorized(w, "Please log in to continue")
				return
			}

			user, err := users.GetByID(r.Context(), session.UserID)
			if err != nil {
				unauthorized(w, "Please log in to continue")
				return
			}
			if !user.IsSubscribed() {
				forbidden(w, "Please subscribe to access this route")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusUnauthorized, message)
}

func forbidden(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusForbidden, message)
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
