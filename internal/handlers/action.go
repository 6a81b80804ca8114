package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/middleware"
	"group-actions-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ActionHandler handles action-related HTTP requests
type ActionHandler struct {
	actionService *services.ActionService
	userService   *services.UserService
	wsHub         *services.WSHub
}

// NewActionHandler creates a new action handler
func NewActionHandler(actionService *services.ActionService, userService *services.UserService, wsHub *services.WSHub) *ActionHandler {
	return &ActionHandler{
		actionService: actionService,
		userService:   userService,
		wsHub:         wsHub,
	}
}

// ListActions handles GET /api/v1/groups/{group_id}/actions
func (h *ActionHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	actions, err := h.actionService.ListGroupActions(ctx, groupID, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"actions": actions,
	})
}

// CreateActionRequest represents the request body for creating an action
type CreateActionRequest struct {
	Title        string     `json:"title"`
	Subtitle     string     `json:"subtitle"`
	Description  string     `json:"description"`
	ThanksMsg    string     `json:"thanks_msg"`
	ActionTypeID int64      `json:"action_type_id"`
	Points       int        `json:"points"`
	StartAt      *time.Time `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
}

// CreateAction handles POST /api/v1/groups/{group_id}/actions
func (h *ActionHandler) CreateAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	var req CreateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation, "Invalid request body")
		return
	}

	action, err := h.actionService.CreateAction(ctx, groupID, userID, services.CreateActionInput{
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		Description:  req.Description,
		ThanksMsg:    req.ThanksMsg,
		ActionTypeID: req.ActionTypeID,
		Points:       req.Points,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("group_id", groupID).Msg("Failed to create action")
		respondAppError(w, err)
		return
	}

	log.Info().
		Int64("user_id", userID).
		Int64("group_id", groupID).
		Int64("action_id", action.ActionID).
		Msg("Action created")

	h.wsHub.NotifyActionCreated(ctx, action)

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"action": action,
	})
}

// GetAction handles GET /api/v1/groups/{group_id}/actions/{action_id}
func (h *ActionHandler) GetAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}
	actionID, err := pathID(r, "action_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	action, err := h.actionService.GetAction(ctx, groupID, actionID, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token":  token,
		"action": action,
	})
}

// UpdateActionRequest represents the request body for updating an action
type UpdateActionRequest struct {
	Title       *string    `json:"title"`
	Subtitle    *string    `json:"subtitle"`
	Description *string    `json:"description"`
	ThanksMsg   *string    `json:"thanks_msg"`
	Points      *int       `json:"points"`
	StartAt     *time.Time `json:"start_at"`
	EndAt       *time.Time `json:"end_at"`
}

// UpdateAction handles PUT /api/v1/groups/{group_id}/actions/{action_id}
func (h *ActionHandler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}
	actionID, err := pathID(r, "action_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	var req UpdateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation, "Invalid request body")
		return
	}

	action, err := h.actionService.UpdateAction(ctx, groupID, actionID, userID, services.UpdateActionInput{
		Title:       req.Title,
		Subtitle:    req.Subtitle,
		Description: req.Description,
		ThanksMsg:   req.ThanksMsg,
		Points:      req.Points,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
	})
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("action_id", actionID).Msg("Failed to update action")
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token":  token,
		"action": action,
	})
}

// DeleteAction handles DELETE /api/v1/groups/{group_id}/actions/{action_id}
func (h *ActionHandler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}
	actionID, err := pathID(r, "action_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	action, err := h.actionService.DeleteAction(ctx, groupID, actionID, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("action_id", actionID).Msg("Failed to delete action")
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"removed": action,
	})
}

// CompleteAction handles POST /api/v1/groups/{group_id}/actions/{action_id}/complete
func (h *ActionHandler) CompleteAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}
	actionID, err := pathID(r, "action_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	if err := h.actionService.CompleteAction(ctx, groupID, actionID, userID); err != nil {
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().Int64("user_id", userID).Int64("action_id", actionID).Msg("Action completed")

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token": token,
	})
}

// ListActionTypes handles GET /api/v1/action-types
func (h *ActionHandler) ListActionTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	types, err := h.actionService.ListActionTypes(ctx)
	if err != nil {
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token":        token,
		"action_types": types,
	})
}
