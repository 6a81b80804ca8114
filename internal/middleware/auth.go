package middleware

import (
	"context"
	"net/http"
	"strings"

	"group-actions-backend/internal/services"
)

type contextKey string

const userIDKey contextKey = "user_id"

// RequireAuth creates a middleware for bearer token authentication.
// Ordering mirrors the auth contract: decode the token first, then
// re-check that the user still exists before trusting the identity.
func RequireAuth(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := authenticate(r, userService)
			if !ok {
				respondUnauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the caller identity when a valid bearer token
// is present and proceeds anonymously otherwise
func OptionalAuth(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := authenticate(r, userService); ok {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, userService *services.UserService) (int64, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}

	userID, err := userService.ValidateToken(parts[1])
	if err != nil {
		return 0, false
	}
	// Check that the user still exists in the DB
	if _, err := userService.GetByID(r.Context(), userID); err != nil {
		return 0, false
	}
	return userID, true
}

// GetUserID extracts the authenticated user ID from context
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

func respondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":0,"error":"unauthenticated","message":"Token has expired"}`))
}
