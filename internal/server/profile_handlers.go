package server

import (
	"github.com/tungtase04539/TFT-Finder/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profiles/:id
// @Summary Get a player profile
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.profileRepo.GetByID(c.UserContext(), profileID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(profile)
}

// RefreshMyRank handles POST /api/profiles/refresh-rank
// @Summary Refresh my rank from Riot
// @Description Re-fetches league entries for the caller's verified account
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param force query bool false "Bypass the freshness window"
// @Success 200 {object} models.Profile
// @Failure 409 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /profiles/refresh-rank [post]
func (s *Server) RefreshMyRank(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	profile, err := s.verificationService.RefreshRank(c.UserContext(), userID, c.QueryBool("force"))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(profile)
}
