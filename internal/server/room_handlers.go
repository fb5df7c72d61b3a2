package server

import (
	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// CreateRoom handles POST /api/rooms
// @Summary Create a room
// @Description Open a new custom-game room with an initial rule list
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{rules=[]string,max_players=int} true "Room settings"
// @Success 201 {object} models.Room
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /rooms [post]
func (s *Server) CreateRoom(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Rules      []string `json:"rules"`
		MaxPlayers int      `json:"max_players"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	room, err := s.roomService.CreateRoom(c.UserContext(), userID, req.Rules, req.MaxPlayers)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(room)
}

// ListRooms handles GET /api/rooms
// @Summary Browse rooms
// @Description List rooms, optionally filtered by status (default: joinable)
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param status query string false "Room status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Room
// @Router /rooms [get]
func (s *Server) ListRooms(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	statuses := []models.RoomStatus{models.RoomForming}
	if raw := c.Query("status"); raw != "" {
		statuses = []models.RoomStatus{models.RoomStatus(raw)}
	}

	rooms, err := s.roomService.ListRooms(c.UserContext(), statuses, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(rooms)
}

// GetRoom handles GET /api/rooms/:id
// @Summary Get a room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} models.Room
// @Failure 404 {object} models.ErrorResponse
// @Router /rooms/{id} [get]
func (s *Server) GetRoom(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	room, err := s.roomService.GetRoom(c.UserContext(), roomID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(room)
}

// JoinRoom handles POST /api/rooms/:id/join
// @Summary Join a room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} models.Room
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rooms/{id}/join [post]
func (s *Server) JoinRoom(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	room, err := s.roomService.JoinRoom(c.UserContext(), roomID, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishRoomEvent(roomID, notifications.RoomEvent{
		Type:     notifications.EventPlayerJoined,
		UserID:   userID,
		Username: s.usernameOf(c, userID),
	})

	return c.JSON(room)
}

// LeaveRoom handles POST /api/rooms/:id/leave
// @Summary Leave a room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} models.Room
// @Failure 403 {object} models.ErrorResponse
// @Router /rooms/{id}/leave [post]
func (s *Server) LeaveRoom(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	room, err := s.roomService.LeaveRoom(c.UserContext(), roomID, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishRoomEvent(roomID, notifications.RoomEvent{
		Type:     notifications.EventPlayerLeft,
		UserID:   userID,
		Username: s.usernameOf(c, userID),
	})

	return c.JSON(room)
}

// AgreeToRules handles POST /api/rooms/:id/agree
// @Summary Agree to the room rules
// @Description Record agreement; the room turns ready once every seat agreed
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} models.Room
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rooms/{id}/agree [post]
func (s *Server) AgreeToRules(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	room, err := s.roomService.AgreeToRules(c.UserContext(), roomID, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishRoomEvent(roomID, notifications.RoomEvent{
		Type:   notifications.EventRoomUpdated,
		UserID: userID,
	})

	return c.JSON(room)
}

// UpdateRoomRules handles PUT /api/rooms/:id/rules
// @Summary Update the rule list
// @Description Host only; resets everyone's agreement except the host's
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param request body object{rules=[]string} true "New rules"
// @Success 200 {object} models.Room
// @Failure 403 {object} models.ErrorResponse
// @Router /rooms/{id}/rules [put]
func (s *Server) UpdateRoomRules(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		Rules []string `json:"rules"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	room, err := s.roomService.UpdateRules(c.UserContext(), roomID, userID, req.Rules)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishRoomEvent(roomID, notifications.RoomEvent{
		Type:   notifications.EventRulesUpdated,
		UserID: userID,
	})

	return c.JSON(room)
}

// UpdateRoomMaxPlayers handles PUT /api/rooms/:id/max-players
// @Summary Resize the room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param request body object{max_players=int} true "New capacity"
// @Success 200 {object} models.Room
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /rooms/{id}/max-players [put]
func (s *Server) UpdateRoomMaxPlayers(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		MaxPlayers int `json:"max_players"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	room, err := s.roomService.UpdateMaxPlayers(c.UserContext(), roomID, userID, req.MaxPlayers)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishRoomEvent(roomID, notifications.RoomEvent{
		Type:   notifications.EventRoomUpdated,
		UserID: userID,
	})

	return c.JSON(room)
}

// SetLobbyCode handles PUT /api/rooms/:id/lobby-code
// @Summary Set the in-game lobby code
// @Description Host only, once the room is ready
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param request body object{lobby_code=string} true "Lobby code"
// @Success 200 {object} models.Room
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rooms/{id}/lobby-code [put]
func (s *Server) SetLobbyCode(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		LobbyCode string `json:"lobby_code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	room, err := s.roomService.SetLobbyCode(c.UserContext(), roomID, userID, req.LobbyCode)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishRoomEvent(roomID, notifications.RoomEvent{
		Type:   notifications.EventRoomUpdated,
		UserID: userID,
	})

	return c.JSON(room)
}

// RecordCopyAction handles POST /api/rooms/:id/copy
// @Summary Record a Riot ID copy
// @Description Stamps the copy timer that drives automatic match detection
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} models.Room
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rooms/{id}/copy [post]
func (s *Server) RecordCopyAction(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	room, err := s.roomService.RecordCopyAction(c.UserContext(), roomID, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(room)
}

// StartPlaying handles POST /api/rooms/:id/start
// @Summary Mark the room as playing
// @Description Host only; use when the lobby was assembled manually
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} models.Room
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /rooms/{id}/start [post]
func (s *Server) StartPlaying(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	room, err := s.roomService.StartPlaying(c.UserContext(), roomID, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishRoomEvent(roomID, notifications.RoomEvent{
		Type:   notifications.EventRoomUpdated,
		UserID: userID,
	})

	return c.JSON(room)
}

// GetRoomMessages handles GET /api/rooms/:id/messages
// @Summary Room chat history
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param limit query int false "Max messages"
// @Success 200 {array} models.RoomMessage
// @Router /rooms/{id}/messages [get]
func (s *Server) GetRoomMessages(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 50)
	messages, err := s.messageRepo.ListByRoom(c.UserContext(), roomID, page.Limit)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(messages)
}

// SendRoomMessage handles POST /api/rooms/:id/messages
// @Summary Send a chat message to a room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param request body object{content=string} true "Message"
// @Success 201 {object} models.RoomMessage
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /rooms/{id}/messages [post]
func (s *Server) SendRoomMessage(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.postRoomMessage(c.UserContext(), roomID, userID, req.Content)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetRoomResults handles GET /api/rooms/:id/results
// @Summary Recorded match results for a room
// @Tags rooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {array} models.MatchResult
// @Router /rooms/{id}/results [get]
func (s *Server) GetRoomResults(c *fiber.Ctx) error {
	roomID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	results, err := s.resultService.ListRoomResults(c.UserContext(), roomID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(results)
}
