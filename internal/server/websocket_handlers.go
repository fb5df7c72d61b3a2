// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/middleware"
	"github.com/tungtase04539/TFT-Finder/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// wsTicketTTL is how long an issued ticket stays redeemable in Redis.
const wsTicketTTL = time.Minute

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a WebSocket ticket
// @Description Returns a short-lived single-use ticket for socket authentication
// @Tags websocket
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Realtime features are unavailable",
		})
	}
	userID := c.Locals("userID").(uint)

	ticket := uuid.NewString()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	if err := s.redis.Set(c.UserContext(), key, fmt.Sprintf("%d", userID), wsTicketTTL).Err(); err != nil {
		log.Printf("failed to store ws ticket for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to issue ticket",
		})
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebsocketHandler handles WebSocket connections for personal notifications
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		// Get userID from context locals (set by AuthRequired middleware)
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		s.consumeWSTicket(ctx, conn.Locals("wsTicket"))

		welcome := map[string]interface{}{
			"type":    "connected",
			"payload": map[string]interface{}{"user_id": userID},
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		// Start write pump in a goroutine
		go client.WritePump()

		// Read pump runs in the main handler goroutine (blocking)
		client.ReadPump()
	})
}

// RoomWebSocketHandler handles WebSocket connections scoped to one room. The
// client receives the room's lifecycle and chat events and may send chat
// messages of the form {"type":"chat","content":"..."}.
func (s *Server) RoomWebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			log.Printf("WebSocket Room: Unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID := userIDVal.(uint)

		var roomID uint
		if _, err := fmt.Sscanf(conn.Params("id"), "%d", &roomID); err != nil || roomID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid room id"}`))
			_ = conn.Close()
			return
		}

		// The room must exist before a watch can start.
		room, err := s.roomService.GetRoom(ctx, roomID)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"room not found"}`))
			_ = conn.Close()
			return
		}

		// Banned users cannot watch or chat in room channels.
		banned, bErr := s.isBannedByUserID(ctx, userID)
		if bErr != nil {
			log.Printf("WebSocket Room: ban check failed for user %d: %v", userID, bErr)
			_ = conn.Close()
			return
		}
		if banned {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"banned"}`))
			_ = conn.Close()
			return
		}

		if s.roomHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.roomHub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket Room: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		s.roomHub.JoinRoom(userID, roomID)

		s.consumeWSTicket(ctx, conn.Locals("wsTicket"))

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			var incoming struct {
				Type    string `json:"type"`
				Content string `json:"content"`
			}
			if err := json.Unmarshal(message, &incoming); err != nil {
				log.Printf("WebSocket Room: Invalid message format from user %d", userID)
				return
			}

			switch incoming.Type {
			case "chat":
				// Same limit as the HTTP chat endpoint (15 per minute)
				id := fmt.Sprintf("user:%d", userID)
				allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "room_chat", id, 15, time.Minute)
				if !allowed {
					s.sendWSError(c, "Rate limit exceeded. Please wait a moment.")
					return
				}

				if _, err := s.postRoomMessage(ctx, roomID, userID, incoming.Content); err != nil {
					s.sendWSError(c, err.Error())
				}

			case "leave":
				s.roomHub.LeaveRoom(userID, roomID)
			}
		}

		welcome := notifications.RoomEvent{
			Type:   "connected",
			RoomID: roomID,
			UserID: userID,
			Payload: map[string]interface{}{
				"room_status": room.Status,
				"watchers":    len(s.roomHub.Watchers(roomID)),
			},
		}
		if welcomeJSON, err := json.Marshal(welcome); err == nil {
			client.TrySend(welcomeJSON)
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) sendWSError(c *notifications.Client, message string) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":    "error",
		"payload": map[string]string{"message": message},
	})
	if err != nil {
		return
	}
	c.TrySend(payload)
}
