package handlers

import (
	"encoding/json"
	"net/http"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles account HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Register handles POST /api/v1/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation, "Invalid request body")
		return
	}

	user, err := h.userService.Register(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to register user")
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(user.UserID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Int64("user_id", user.UserID).
		Str("username", user.Username).
		Msg("User registered")

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, apperr.Validation, "email and password are required")
		return
	}

	user, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(user.UserID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
