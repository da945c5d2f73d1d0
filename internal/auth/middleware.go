package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JustinTDCT/CineSweep/internal/httputil"
)

type contextKey string

const (
	ContextUser contextKey = "user"
)

type ContextUserData struct {
	Subject string
	Role    string
}

func (u ContextUserData) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Middleware struct {
	auth *Auth
}

func NewMiddleware(a *Auth) *Middleware {
	return &Middleware{auth: a}
}

// RequireAuth accepts an X-API-Key header (admin) or a bearer token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-API-Key"); key != "" {
			if !m.auth.CheckAPIKey(key) {
				httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), ContextUserData{Subject: "api-key", Role: RoleAdmin})))
			return
		}

		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		claims, err := m.auth.ValidateToken(token)
		if errors.Is(err, ErrTokenExpired) {
			httputil.WriteError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "token expired")
			return
		}
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), ContextUserData{
			Subject: claims.Subject,
			Role:    claims.Role,
		})))
	})
}

func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || !user.IsAdmin() {
			httputil.WriteError(w, http.StatusForbidden, "FORBIDDEN", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, u ContextUserData) context.Context {
	return context.WithValue(ctx, ContextUser, u)
}

func UserFromContext(ctx context.Context) *ContextUserData {
	if v, ok := ctx.Value(ContextUser).(ContextUserData); ok {
		return &v
	}
	return nil
}

// extractToken reads a bearer header, falling back to the token query
// parameter used by websocket clients.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
