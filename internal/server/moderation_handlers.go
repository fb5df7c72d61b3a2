package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
	"github.com/tungtase04539/TFT-Finder/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxReportImageSizeBytes = 5 * 1024 * 1024

var reportImageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// CreateReport handles POST /api/reports
// @Summary File a report against a room member
// @Description Accepts JSON or multipart form data with up to 3 evidence images
// @Tags moderation
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateReportInput true "Report details"
// @Success 201 {object} models.Report
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /reports [post]
func (s *Server) CreateReport(c *fiber.Ctx) error {
	reporterID := c.Locals("userID").(uint)

	var input service.CreateReportInput
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		parsed, err := s.parseReportForm(c)
		if err != nil {
			return models.RespondWithError(c, mapServiceError(err), err)
		}
		input = *parsed
	} else if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.moderationService.CreateReport(c.UserContext(), reporterID, input)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

// parseReportForm extracts report fields and evidence images from a
// multipart submission. Images are content-sniffed and written to disk
// before validation of the rest of the report, so a rejected report can
// leave orphaned files; the upload dir is treated as scratch space.
func (s *Server) parseReportForm(c *fiber.Ctx) (*service.CreateReportInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, models.NewValidationError("Invalid multipart form")
	}

	input := &service.CreateReportInput{
		Description: formValue(form, "description"),
	}
	if _, err := fmt.Sscanf(formValue(form, "accused_id"), "%d", &input.AccusedID); err != nil {
		return nil, models.NewValidationError("A valid accused_id is required")
	}
	if _, err := fmt.Sscanf(formValue(form, "room_id"), "%d", &input.RoomID); err != nil {
		return nil, models.NewValidationError("A valid room_id is required")
	}
	for _, raw := range strings.Split(formValue(form, "violations"), ",") {
		if v := strings.TrimSpace(raw); v != "" {
			input.Violations = append(input.Violations, v)
		}
	}

	files := form.File["images"]
	if len(files) > models.MaxReportImages {
		return nil, models.NewValidationError("At most 3 evidence images are allowed")
	}
	for _, file := range files {
		path, err := s.saveReportImage(file)
		if err != nil {
			return nil, err
		}
		input.Images = append(input.Images, path)
	}

	return input, nil
}

func formValue(form *multipart.Form, key string) string {
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (s *Server) saveReportImage(file *multipart.FileHeader) (string, error) {
	if file.Size > maxReportImageSizeBytes {
		return "", models.NewValidationError("Evidence images must be 5MB or smaller")
	}

	src, err := file.Open()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, maxReportImageSizeBytes+1))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if int64(len(content)) > maxReportImageSizeBytes {
		return "", models.NewValidationError("Evidence images must be 5MB or smaller")
	}

	ext, ok := reportImageExtensions[http.DetectContentType(content)]
	if !ok {
		return "", models.NewValidationError("Evidence must be a JPEG, PNG, WebP, or GIF image")
	}

	dir := filepath.Join(s.config.UploadDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}
	path := filepath.Join(dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}
	return path, nil
}

// ListReports handles GET /api/admin/reports
// @Summary List reports for review
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param accused_id query int false "Filter by accused user"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Report
// @Router /admin/reports [get]
func (s *Server) ListReports(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	filter := repository.ReportFilter{
		Status:    models.ReportStatus(strings.TrimSpace(c.Query("status"))),
		AccusedID: uint(c.QueryInt("accused_id")),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}

	reports, err := s.moderationService.ListReports(c.UserContext(), filter)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(reports)
}

// GetReport handles GET /api/admin/reports/:id
// @Summary Get a report
// @Description Includes how many prior reports against the accused were upheld
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Success 200 {object} service.ReportDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/reports/{id} [get]
func (s *Server) GetReport(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.moderationService.GetReport(c.UserContext(), reportID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(detail)
}

// ResolveReport handles POST /api/admin/reports/:id/resolve
// @Summary Approve or reject a report
// @Description Approval issues a strike against the accused
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Param request body object{approve=bool} true "Verdict"
// @Success 200 {object} models.Report
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/reports/{id}/resolve [post]
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(uint)
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.moderationService.ResolveReport(c.UserContext(), reportID, adminID, req.Approve)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishUserEvent(report.ReporterID, EventReportResolved, map[string]interface{}{
		"report_id": report.ID,
		"status":    report.Status,
	})
	if req.Approve {
		s.publishUserEvent(report.AccusedID, EventBanApplied, map[string]interface{}{
			"report_id": report.ID,
		})
	}

	return c.JSON(report)
}

// ApplyBan handles POST /api/admin/apply-ban
// @Summary Ban a user directly
// @Description First strike is a 24h suspension, the second is permanent
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{user_id=int,reason=string,report_id=int} true "Ban details"
// @Success 201 {object} models.Ban
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/apply-ban [post]
func (s *Server) ApplyBan(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(uint)

	var req struct {
		UserID   uint   `json:"user_id"`
		Reason   string `json:"reason"`
		ReportID *uint  `json:"report_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A valid user_id is required"))
	}
	if adminID == req.UserID {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("You cannot ban yourself"))
	}

	ban, err := s.moderationService.ApplyBan(c.UserContext(), req.UserID, adminID, req.ReportID, strings.TrimSpace(req.Reason))
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishUserEvent(req.UserID, EventBanApplied, map[string]interface{}{
		"ban_id": ban.ID,
		"type":   ban.Type,
		"reason": ban.Reason,
	})

	return c.Status(fiber.StatusCreated).JSON(ban)
}

// ListBans handles GET /api/admin/bans
// @Summary List issued bans
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Ban
// @Router /admin/bans [get]
func (s *Server) ListBans(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	bans, err := s.moderationService.ListBans(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(bans)
}

// Unban handles DELETE /api/admin/bans/:id
// @Summary Lift a ban
// @Description Removes the ban, refunds the strike, and clears any suspension
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Ban ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/bans/{id} [delete]
func (s *Server) Unban(c *fiber.Ctx) error {
	banID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ban, err := s.banRepo.GetByID(c.UserContext(), banID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	if err := s.moderationService.Unban(c.UserContext(), banID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishUserEvent(ban.UserID, EventBanLifted, map[string]interface{}{
		"ban_id": banID,
	})

	return c.JSON(fiber.Map{"message": "Ban lifted"})
}

// AdminStats handles GET /api/admin/stats
// @Summary Moderation dashboard counters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.AdminStats
// @Router /admin/stats [get]
func (s *Server) AdminStats(c *fiber.Ctx) error {
	stats, err := s.moderationService.Stats(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(stats)
}
