package http

import (
	"context"
	"net/http"
)

type scopeKey struct{}

// ScopeResolver is satisfied by auth.Authenticator.
type ScopeResolver interface {
	Resolve(ctx context.Context, apiKey string) (string, bool)
}

type AuthMiddleware struct {
	auth ScopeResolver
}

func NewAuthMiddleware(a ScopeResolver) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "missing X-API-Key header")
			return
		}

		scope, ok := m.auth.Resolve(r.Context(), apiKey)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
	})
}

func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// ScopeFrom returns the group scope stored by the middleware.
func ScopeFrom(ctx context.Context) string {
	scope, _ := ctx.Value(scopeKey{}).(string)
	return scope
}
