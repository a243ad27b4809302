package auth

import (
	"context"
	"net/http"

	"todo-bulk-update/pkg/logging"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// SessionTokenKey is the context key for the raw session token
	SessionTokenKey contextKey = "session_token"
	// UserIDKey is the context key for the resolved user id
	UserIDKey contextKey = "user_id"
)

// SessionMiddleware copies the session cookie into the request context.
// When the token resolves to a user, the user id is attached as well so
// logs carry it. Requests without a valid session pass through: each
// controller decides whether a session is required.
type SessionMiddleware struct {
	auth *AuthenticationService
}

func NewSessionMiddleware(auth *AuthenticationService) *SessionMiddleware {
	return &SessionMiddleware{auth: auth}
}

// Handler wraps an HTTP handler with session resolution
func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(m.auth.CookieName())
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), SessionTokenKey, c.Value)
		if user, _, err := m.auth.ValidateSession(ctx, c.Value); err == nil {
			ctx = context.WithValue(ctx, UserIDKey, user.ID)
			ctx = logging.ContextWithUserID(ctx, user.ID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionTokenFromContext retrieves the session token from the request context
func SessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(SessionTokenKey).(string)
	return token
}

// UserIDFromContext retrieves the user id resolved by the middleware
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}
