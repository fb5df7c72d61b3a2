package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/observability"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
)

const maxReportDescriptionLength = 2000

// ModerationService handles reports, admin review, and the two-strike ban
// policy.
type ModerationService struct {
	reports  repository.ReportRepository
	bans     repository.BanRepository
	profiles repository.ProfileRepository
	rooms    repository.RoomRepository
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	reports repository.ReportRepository,
	bans repository.BanRepository,
	profiles repository.ProfileRepository,
	rooms repository.RoomRepository,
) *ModerationService {
	return &ModerationService{reports: reports, bans: bans, profiles: profiles, rooms: rooms}
}

// CreateReportInput carries a new accusation from a room participant.
type CreateReportInput struct {
	AccusedID   uint     `json:"accused_id"`
	RoomID      uint     `json:"room_id"`
	Violations  []string `json:"violations"`
	Description string   `json:"description"`
	Images      []string `json:"-"`
}

// CreateReport files an accusation. Both parties must be members of the
// room, and the violation tags must come from the known set.
func (s *ModerationService) CreateReport(ctx context.Context, reporterID uint, input CreateReportInput) (*models.Report, error) {
	if input.AccusedID == reporterID {
		return nil, models.NewValidationError("You cannot report yourself")
	}
	if len(input.Violations) == 0 {
		return nil, models.NewValidationError("At least one violation is required")
	}
	for _, v := range input.Violations {
		if !models.ValidViolationType(models.ViolationType(v)) {
			return nil, models.NewValidationError("Unknown violation type: " + v)
		}
	}
	if len(input.Description) > maxReportDescriptionLength {
		return nil, models.NewValidationError("Description is too long")
	}
	if len(input.Images) > models.MaxReportImages {
		return nil, models.NewValidationError("At most 3 evidence images are allowed")
	}

	room, err := s.rooms.GetByID(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Players.Contains(reporterID) || !room.Players.Contains(input.AccusedID) {
		return nil, models.NewForbiddenError("Reports can only target members of your room")
	}

	report := &models.Report{
		ReporterID:  reporterID,
		AccusedID:   input.AccusedID,
		RoomID:      input.RoomID,
		Violations:  models.StringList(input.Violations),
		Description: input.Description,
		Images:      models.StringList(input.Images),
		Status:      models.ReportPending,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ReportDetail is the admin review view of a report: the report itself plus
// how many prior reports against the accused were upheld.
type ReportDetail struct {
	Report                 *models.Report `json:"report"`
	AccusedApprovedReports int64          `json:"accused_approved_reports"`
}

// GetReport fetches a single report with its parties preloaded, together
// with the accused's approved-report history.
func (s *ModerationService) GetReport(ctx context.Context, id uint) (*ReportDetail, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	priorApproved, err := s.reports.CountApprovedByAccused(ctx, report.AccusedID)
	if err != nil {
		return nil, err
	}
	return &ReportDetail{Report: report, AccusedApprovedReports: priorApproved}, nil
}

// ListReports lists reports for admin review.
func (s *ModerationService) ListReports(ctx context.Context, filter repository.ReportFilter) ([]models.Report, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.reports.List(ctx, filter)
}

// ResolveReport settles a pending report exactly once. Approval issues a ban
// against the accused under the two-strike policy.
func (s *ModerationService) ResolveReport(ctx context.Context, reportID, adminID uint, approve bool) (*models.Report, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	status := models.ReportRejected
	if approve {
		status = models.ReportApproved
	}
	err = s.reports.Resolve(ctx, reportID, map[string]interface{}{
		"status":      status,
		"reviewed_by": adminID,
		"reviewed_at": time.Now(),
	})
	if err != nil {
		return nil, err
	}

	if approve {
		reason := "Upheld report: " + strings.Join(report.Violations, ", ")
		if _, err := s.ApplyBan(ctx, report.AccusedID, adminID, &report.ID, reason); err != nil {
			return nil, err
		}
	}
	return s.reports.GetByID(ctx, reportID)
}

// ApplyBan sanctions a user. First strike is a 24-hour temporary ban; the
// second is permanent and blacklists the verified Riot identity so a fresh
// account cannot re-verify it.
func (s *ModerationService) ApplyBan(ctx context.Context, userID, issuedBy uint, reportID *uint, reason string) (*models.Ban, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	newCount := profile.BanCount + 1
	ban := &models.Ban{
		UserID:   userID,
		ReportID: reportID,
		IssuedBy: issuedBy,
		Reason:   reason,
	}
	fields := map[string]interface{}{"ban_count": newCount}

	if newCount >= 2 {
		ban.Type = models.BanPermanent
		fields["banned_until"] = nil
		if profile.RiotID != "" {
			if err := s.bans.BlacklistRiotID(ctx, profile.RiotID, userID); err != nil {
				return nil, err
			}
		}
	} else {
		expires := time.Now().Add(models.TemporaryBanDuration)
		ban.Type = models.BanTemporary
		ban.ExpiresAt = &expires
		fields["banned_until"] = expires
	}

	if err := s.bans.Create(ctx, ban); err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateFields(ctx, userID, fields); err != nil {
		return nil, err
	}

	observability.GlobalLogger.InfoContext(ctx, "ban applied",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("type", string(ban.Type)),
		slog.Int("ban_count", newCount),
	)
	return ban, nil
}

// ListBans lists issued bans for the admin dashboard.
func (s *ModerationService) ListBans(ctx context.Context, limit, offset int) ([]models.Ban, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.bans.List(ctx, limit, offset)
}

// Unban lifts a sanction: the ban record is removed, the strike is refunded,
// and any remaining suspension on the profile is cleared.
func (s *ModerationService) Unban(ctx context.Context, banID uint) error {
	ban, err := s.bans.GetByID(ctx, banID)
	if err != nil {
		return err
	}

	profile, err := s.profiles.GetByID(ctx, ban.UserID)
	if err != nil {
		return err
	}
	newCount := profile.BanCount - 1
	if newCount < 0 {
		newCount = 0
	}
	err = s.profiles.UpdateFields(ctx, ban.UserID, map[string]interface{}{
		"ban_count":    newCount,
		"banned_until": nil,
	})
	if err != nil {
		return err
	}
	return s.bans.Delete(ctx, banID)
}

// AdminStats is the moderation dashboard summary.
type AdminStats struct {
	PendingReports int64 `json:"pending_reports"`
	TotalBans      int64 `json:"total_bans"`
	TotalUsers     int64 `json:"total_users"`
	ActiveRooms    int64 `json:"active_rooms"`
}

// Stats assembles the admin dashboard counters.
func (s *ModerationService) Stats(ctx context.Context) (*AdminStats, error) {
	pending, err := s.reports.CountByStatus(ctx, models.ReportPending)
	if err != nil {
		return nil, err
	}
	bans, err := s.bans.Count(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminStats{
		PendingReports: pending,
		TotalBans:      bans,
		TotalUsers:     users,
		ActiveRooms:    rooms,
	}, nil
}
