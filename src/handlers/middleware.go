// backend/src/handlers/middleware.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/merkaz770/shluchim/backend/src/logger"
	"github.com/merkaz770/shluchim/backend/src/utils"
)

type contextKey string

const (
	userIDContextKey    contextKey = "userID"
	isAdminContextKey   contextKey = "isAdmin"
	requestIDContextKey contextKey = "requestID"
)

// GetUserIDFromContext returns the authenticated user's id, if any.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

// IsAdminFromContext reports whether the authenticated user is a manager.
func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(isAdminContextKey).(bool)
	return isAdmin
}

// ContextualLoggerMiddleware attaches a request-scoped logger carrying a
// generated request id.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware validates the bearer token and injects the account identity
// into the request context.
func (h *UserHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLogger := logger.FromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			ctxLogger.Debug("AuthMiddleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			ctxLogger.Debug("AuthMiddleware: token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, claims.UserID)
		ctx = context.WithValue(ctx, isAdminContextKey, claims.IsAdmin)
		ctx = logger.ToContext(ctx, logger.FromContext(ctx).With(slog.Int64("userID", claims.UserID)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminMiddleware gates the manager-only routes. It runs after AuthMiddleware.
func (h *UserHandler) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdminFromContext(r.Context()) {
			logger.FromContext(r.Context()).Warn("AdminMiddleware: non-admin access attempt", "path", r.URL.Path)
			utils.SendJSONError(w, "manager access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
