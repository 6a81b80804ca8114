package handlers

import (
	"net/http"

	"group-actions-backend/internal/middleware"
	"group-actions-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the HTTP surface. Privacy-gated reads take an
// optional bearer token; writes require one.
func NewRouter(
	userService *services.UserService,
	userHandler *UserHandler,
	groupHandler *GroupHandler,
	actionHandler *ActionHandler,
	wsHandler *WebSocketHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		// Public routes with optional caller identity
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(userService))
			r.Get("/groups", groupHandler.ListGroups)
			r.Get("/groups/code/{group_code}", groupHandler.GetGroupByCode)
			r.Get("/groups/{group_id}", groupHandler.GetGroup)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(userService))
			r.Post("/groups", groupHandler.CreateGroup)
			r.Put("/groups/{group_id}", groupHandler.UpdateGroup)
			r.Get("/groups/{group_id}/members", groupHandler.ListMembers)
			r.Post("/groups/{group_id}/members", groupHandler.JoinGroup)
			r.Get("/groups/{group_id}/actions", actionHandler.ListActions)
			r.Post("/groups/{group_id}/actions", actionHandler.CreateAction)
			r.Get("/groups/{group_id}/actions/{action_id}", actionHandler.GetAction)
			r.Put("/groups/{group_id}/actions/{action_id}", actionHandler.UpdateAction)
			r.Delete("/groups/{group_id}/actions/{action_id}", actionHandler.DeleteAction)
			r.Post("/groups/{group_id}/actions/{action_id}/complete", actionHandler.CompleteAction)
			r.Get("/action-types", actionHandler.ListActionTypes)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
