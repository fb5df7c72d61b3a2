package server

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// User-scoped event type constants prevent typos in event names.
const (
	EventBanApplied     = "ban_applied"
	EventBanLifted      = "ban_lifted"
	EventReportResolved = "report_resolved"
)

// publishRoomEvent fans a room event out to every watcher of the room.
// With Redis available the event goes through the notifier, and the room
// subscriber delivers it back to the local hub alongside every other
// instance. Without Redis the local hub is the only audience.
func (s *Server) publishRoomEvent(roomID uint, event notifications.RoomEvent) {
	event.RoomID = roomID
	if s.notifier != nil {
		if err := s.notifier.PublishRoomEvent(context.Background(), roomID, event); err != nil {
			log.Printf("failed to publish %s event for room %d: %v", event.Type, roomID, err)
		}
		return
	}
	if s.roomHub != nil {
		s.roomHub.BroadcastToRoom(roomID, event)
	}
}

// publishUserEvent delivers a personal notification to one user's sockets.
func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
}

// usernameOf resolves a user's display name for event payloads. Lookup
// failures degrade to an empty name rather than blocking the event.
func (s *Server) usernameOf(c *fiber.Ctx, userID uint) string {
	return s.usernameOfCtx(c.UserContext(), userID)
}

func (s *Server) usernameOfCtx(ctx context.Context, userID uint) string {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return profile.Username
}

// postRoomMessage validates, persists, and broadcasts one chat message.
// Both the HTTP endpoint and the websocket chat path go through here so
// membership and length rules cannot drift between the two.
func (s *Server) postRoomMessage(ctx context.Context, roomID, userID uint, content string) (*models.RoomMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if len(content) > models.MaxRoomMessageLength {
		return nil, models.NewValidationError("Message is too long")
	}

	room, err := s.roomService.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Players.Contains(userID) {
		return nil, models.NewForbiddenError("Only room members can chat")
	}
	banned, err := s.isBannedByUserID(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if banned {
		return nil, models.NewForbiddenError("You are banned")
	}

	message := &models.RoomMessage{
		RoomID:  roomID,
		UserID:  userID,
		Content: content,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	s.publishRoomEvent(roomID, notifications.RoomEvent{
		Type:     notifications.EventChatMessage,
		UserID:   userID,
		Username: s.usernameOfCtx(ctx, userID),
		Payload: map[string]interface{}{
			"message_id": message.ID,
			"content":    message.Content,
			"created_at": message.CreatedAt,
		},
	})

	return message, nil
}
