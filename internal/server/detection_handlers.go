package server

import (
	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// CheckMatchStarted handles POST /api/check-match-started
// @Summary Check a room for a started match
// @Description Runs on-demand match detection against the Riot match history
// @Tags detection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{room_id=int} true "Room to check"
// @Success 200 {object} service.MatchStartResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /check-match-started [post]
func (s *Server) CheckMatchStarted(c *fiber.Ctx) error {
	var req struct {
		RoomID uint `json:"room_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.RoomID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A room_id is required"))
	}

	result, err := s.detectionService.CheckRoom(c.UserContext(), req.RoomID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	if result.Started {
		s.publishRoomEvent(req.RoomID, notifications.RoomEvent{
			Type:    notifications.EventMatchDetected,
			Payload: fiber.Map{"match_id": result.MatchID},
		})
	}

	return c.JSON(result)
}

// TrackMatchResult handles POST /api/track-match-result
// @Summary Record the result of a detected match
// @Description Fetches match detail, records placements, and completes the room
// @Tags detection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{room_id=int} true "Room to resolve"
// @Success 200 {object} models.MatchResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /track-match-result [post]
func (s *Server) TrackMatchResult(c *fiber.Ctx) error {
	var req struct {
		RoomID uint `json:"room_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.RoomID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A room_id is required"))
	}

	result, err := s.resultService.TrackRoomResult(c.UserContext(), req.RoomID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishRoomEvent(req.RoomID, notifications.RoomEvent{
		Type:    notifications.EventMatchCompleted,
		Payload: fiber.Map{"match_id": result.MatchID},
	})

	return c.JSON(result)
}
