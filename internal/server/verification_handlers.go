package server

import (
	"strings"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"github.com/gofiber/fiber/v2"
)

// StartRiotVerification handles POST /api/verify/riot/start
// @Summary Begin Riot account verification
// @Description Looks up the Riot ID and issues a profile icon challenge
// @Tags verification
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{game_name=string,tag_line=string} true "Riot ID"
// @Success 200 {object} service.RiotChallenge
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /verify/riot/start [post]
func (s *Server) StartRiotVerification(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		GameName string `json:"game_name"`
		TagLine  string `json:"tag_line"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	gameName := strings.TrimSpace(req.GameName)
	tagLine := strings.TrimSpace(strings.TrimPrefix(req.TagLine, "#"))
	if gameName == "" || tagLine == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Game name and tag line are required"))
	}

	challenge, err := s.verificationService.StartRiotVerification(c.UserContext(), userID, gameName, tagLine)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(challenge)
}

// ConfirmRiotVerification handles POST /api/verify/riot/confirm
// @Summary Confirm Riot account verification
// @Description Checks the summoner icon against the issued challenge
// @Tags verification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /verify/riot/confirm [post]
func (s *Server) ConfirmRiotVerification(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	profile, err := s.verificationService.CompleteRiotVerification(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(profile)
}
