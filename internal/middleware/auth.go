package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"taskboard/internal/logging"
	"taskboard/internal/models"
)

type ctxKey struct{}

type TokenParser interface {
	Parse(token string) (int, error)
}

type UserLoader interface {
	UserByID(ctx context.Context, id int) (models.User, error)
}

type AuthMiddleware struct {
	tokens TokenParser
	users  UserLoader
}

func NewAuthMiddleware(tokens TokenParser, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// RequireAuth resolves the bearer token to an active user and stores it in the request
// context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
			return
		}
		id, err := m.tokens.Parse(strings.TrimPrefix(authz, "Bearer "))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		user, err := m.users.UserByID(r.Context(), id)
		if err != nil || !user.IsActive {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, user)
		ctx = logging.WithContext(ctx, logging.FromContext(ctx).With(zap.Int("user_id", user.ID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsSuperuser {
			writeJSON(w, http.StatusForbidden, map[string]string{"status": "error", "message": "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
