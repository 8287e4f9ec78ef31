// Package middleware provides HTTP middleware for the control/status server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/parkpulse/parking-iot/internal/auth"
	"github.com/parkpulse/parking-iot/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const operatorContextKey contextKey = "operator"

// AuthMiddleware validates operator JWTs on control endpoints.
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates the middleware.
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate validates bearer tokens and attaches operator claims to the
// request context. Health, login and read-only status endpoints skip auth.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipAuth(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		claims, err := m.authService.ValidateToken(authHeader)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), operatorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorFromContext extracts operator claims from the request context.
func OperatorFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(operatorContextKey).(*models.Claims)
	return claims, ok
}

// shouldSkipAuth lists the endpoints that stay open: liveness, login and the
// read-only observability surface.
func shouldSkipAuth(path string) bool {
	skipPaths := []string{
		"/health",
		"/api/auth/login",
		"/api/progress",
		"/api/facilities",
	}
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}
