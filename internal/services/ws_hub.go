package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"group-actions-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket event sent to connected members
type WSMessage struct {
	Type    string      `json:"type"`
	GroupID int64       `json:"group_id,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and fans group events out to
// online members
type WSHub struct {
	mu          sync.RWMutex
	connections map[int64]*websocket.Conn
	groups      GroupStore
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(groups GroupStore) *WSHub {
	return &WSHub{
		connections: make(map[int64]*websocket.Conn),
		groups:      groups,
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existingConn, exists := h.connections[userID]; exists {
		existingConn.Close()
	}
	h.connections[userID] = conn

	log.Info().Int64("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a user
func (h *WSHub) Unregister(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[userID]; exists {
		conn.Close()
		delete(h.connections, userID)
		log.Info().Int64("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID int64, message WSMessage) error {
	h.mu.RLock()
	conn, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %d is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// IsOnline checks if a user is online
func (h *WSHub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// BroadcastGroup sends a message to every online, non-banned member of
// a group. Delivery is best effort; offline members are skipped.
func (h *WSHub) BroadcastGroup(ctx context.Context, groupID int64, message WSMessage) {
	members, err := h.groups.ListMembers(ctx, groupID)
	if err != nil {
		log.Error().Err(err).Int64("group_id", groupID).Msg("Failed to list members for broadcast")
		return
	}
	message.GroupID = groupID

	for _, m := range members {
		if m.Banned || !h.IsOnline(m.UserID) {
			continue
		}
		if err := h.SendToUser(m.UserID, message); err != nil {
			log.Error().
				Err(err).
				Int64("user_id", m.UserID).
				Int64("group_id", groupID).
				Str("type", message.Type).
				Msg("Failed to deliver group event")
		}
	}
}

// NotifyActionCreated notifies group members about a new action
func (h *WSHub) NotifyActionCreated(ctx context.Context, action *models.Action) {
	h.BroadcastGroup(ctx, action.GroupID, WSMessage{
		Type: "action_created",
		Data: map[string]interface{}{
			"action_id": action.ActionID,
			"title":     action.Title,
			"start_at":  action.StartAt,
			"end_at":    action.EndAt,
			"points":    action.Points,
		},
	})
}

// NotifyGroupUpdated notifies group members about updated group info
func (h *WSHub) NotifyGroupUpdated(ctx context.Context, group *models.Group) {
	h.BroadcastGroup(ctx, group.GroupID, WSMessage{
		Type: "group_updated",
		Data: map[string]interface{}{
			"name":    group.Name,
			"private": group.Private,
		},
	})
}
