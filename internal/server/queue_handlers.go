package server

import (
	"github.com/tungtase04539/TFT-Finder/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListQueue handles GET /api/queue
// @Summary List the matchmaking queue
// @Tags queue
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.QueueEntry
// @Router /queue [get]
func (s *Server) ListQueue(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	entries, err := s.queueService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(entries)
}

// JoinQueue handles POST /api/queue/join
// @Summary Join the matchmaking queue
// @Tags queue
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.QueueEntry
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /queue/join [post]
func (s *Server) JoinQueue(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	entry, err := s.queueService.Join(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// LeaveQueue handles DELETE /api/queue/leave
// @Summary Leave the matchmaking queue
// @Tags queue
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Router /queue/leave [delete]
func (s *Server) LeaveQueue(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.queueService.Leave(c.UserContext(), userID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Left the queue"})
}
