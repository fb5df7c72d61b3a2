// Package notifications provides real-time notification delivery and management.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Room event types pushed to connected clients.
const (
	EventRoomUpdated    = "room_updated"
	EventPlayerJoined   = "player_joined"
	EventPlayerLeft     = "player_left"
	EventRulesUpdated   = "rules_updated"
	EventMatchDetected  = "match_detected"
	EventMatchCompleted = "match_completed"
	EventChatMessage    = "chat_message"
)

// RoomEvent is the wire format for everything pushed on a room's channel.
type RoomEvent struct {
	Type     string      `json:"type"`
	RoomID   uint        `json:"room_id"`
	UserID   uint        `json:"user_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
}

// RoomHub manages websocket connections per room. Unlike Hub (which is
// user-centric), RoomHub is room-centric: a client subscribes to the single
// room it is viewing and receives that room's lifecycle and chat events.
type RoomHub struct {
	mu sync.RWMutex

	// roomID -> set of member userIDs currently viewing the room
	rooms map[uint]map[uint]struct{}

	// userID -> set of roomIDs the user is subscribed to
	userRooms map[uint]map[uint]struct{}

	// userID -> active clients, multiple devices allowed
	userConns map[uint]map[*Client]bool
}

// Name returns a human-readable identifier for this hub.
func (h *RoomHub) Name() string { return "room hub" }

// NewRoomHub creates a new RoomHub instance.
func NewRoomHub() *RoomHub {
	return &RoomHub{
		rooms:     make(map[uint]map[uint]struct{}),
		userRooms: make(map[uint]map[uint]struct{}),
		userConns: make(map[uint]map[*Client]bool),
	}
}

// Register registers a user's websocket connection. Returns the Client or an
// error if the per-user limit is exceeded.
func (h *RoomHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = true
	return client, nil
}

// UnregisterClient removes a connection. When the last connection for the
// user closes, all their room subscriptions are dropped.
func (h *RoomHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) > 0 {
		return
	}
	delete(h.userConns, client.UserID)

	for roomID := range h.userRooms[client.UserID] {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, client.UserID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.userRooms, client.UserID)
}

// JoinRoom subscribes a connected user to a room's event stream.
func (h *RoomHub) JoinRoom(userID, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.userConns[userID]; !ok {
		log.Printf("RoomHub: user %d not connected, cannot watch room %d", userID, roomID)
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[uint]struct{})
	}
	h.rooms[roomID][userID] = struct{}{}

	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[uint]struct{})
	}
	h.userRooms[userID][roomID] = struct{}{}
}

// LeaveRoom unsubscribes a user from a room's event stream.
func (h *RoomHub) LeaveRoom(userID, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[roomID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if rooms, ok := h.userRooms[userID]; ok {
		delete(rooms, roomID)
	}
}

// BroadcastToRoom pushes an event to every client watching the room.
func (h *RoomHub) BroadcastToRoom(roomID uint, event RoomEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	event.RoomID = roomID
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("RoomHub: failed to marshal event: %v", err)
		return
	}
	for userID := range members {
		if clients, ok := h.userConns[userID]; ok {
			for client := range clients {
				client.TrySend(data)
			}
		}
	}
}

// Watchers returns the userIDs currently watching a room.
func (h *RoomHub) Watchers(roomID uint) []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return []uint{}
	}
	result := make([]uint, 0, len(members))
	for userID := range members {
		result = append(result, userID)
	}
	return result
}

// IsWatching reports whether a user is subscribed to a room.
func (h *RoomHub) IsWatching(userID, roomID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms, ok := h.userRooms[userID]
	if !ok {
		return false
	}
	_, watching := rooms[roomID]
	return watching
}

// StartWiring connects the RoomHub to Redis pub/sub so events published by
// any server instance reach this instance's local clients.
func (h *RoomHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartRoomSubscriber(ctx, func(channel, payload string) {
		var roomID uint
		if _, err := fmt.Sscanf(channel, "room:%d:events", &roomID); err != nil {
			log.Printf("RoomHub: invalid channel format: %s", channel)
			return
		}

		var event RoomEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Printf("RoomHub: failed to parse event from channel %s: %v", channel, err)
			return
		}
		h.BroadcastToRoom(roomID, event)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *RoomHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.userConns {
		for client := range clients {
			if err := client.Conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"server_shutdown"}`)); err != nil {
				log.Printf("failed to write shutdown message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}

	h.rooms = make(map[uint]map[uint]struct{})
	h.userRooms = make(map[uint]map[uint]struct{})
	h.userConns = make(map[uint]map[*Client]bool)

	return nil
}
