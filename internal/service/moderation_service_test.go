package service

import (
	"context"
	"testing"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"
)

func moderationFixture() (*ModerationService, *reportRepoStub, *banRepoStub, *profileRepoStub, *roomRepoStub) {
	reports := noopReportRepo()
	bans := noopBanRepo()
	profiles := noopProfileRepo()
	rooms := noopRoomRepo()
	svc := NewModerationService(reports, bans, profiles, rooms)
	return svc, reports, bans, profiles, rooms
}

func TestCreateReportRejectsSelfReport(t *testing.T) {
	svc, _, _, _, _ := moderationFixture()
	_, err := svc.CreateReport(context.Background(), 5, CreateReportInput{
		AccusedID:  5,
		RoomID:     1,
		Violations: []string{string(models.ViolationHarassment)},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateReportRejectsUnknownViolation(t *testing.T) {
	svc, _, _, _, _ := moderationFixture()
	_, err := svc.CreateReport(context.Background(), 5, CreateReportInput{
		AccusedID:  6,
		RoomID:     1,
		Violations: []string{"being_bad_at_the_game"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := err.(*models.AppError)
	if !ok || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %#v", err)
	}
}

func TestCreateReportRequiresSharedRoom(t *testing.T) {
	svc, _, _, _, rooms := moderationFixture()
	rooms.getByIDFn = func(id uint) (*models.Room, error) {
		return &models.Room{ID: id, Players: models.UintList{5, 7}}, nil
	}

	_, err := svc.CreateReport(context.Background(), 5, CreateReportInput{
		AccusedID:  6,
		RoomID:     1,
		Violations: []string{string(models.ViolationGameSabotage)},
	})
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	appErr, ok := err.(*models.AppError)
	if !ok || appErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %#v", err)
	}
}

func TestCreateReportPersistsPending(t *testing.T) {
	svc, reports, _, _, rooms := moderationFixture()
	rooms.getByIDFn = func(id uint) (*models.Room, error) {
		return &models.Room{ID: id, Players: models.UintList{5, 6}}, nil
	}
	var saved *models.Report
	reports.createFn = func(r *models.Report) error {
		r.ID = 11
		saved = r
		return nil
	}

	report, err := svc.CreateReport(context.Background(), 5, CreateReportInput{
		AccusedID:   6,
		RoomID:      1,
		Violations:  []string{string(models.ViolationRuleViolation)},
		Description: "ignored the agreed comps",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil || report.Status != models.ReportPending {
		t.Fatalf("expected pending report persisted, got %+v", report)
	}
}

func TestGetReportIncludesAccusedHistory(t *testing.T) {
	svc, reports, _, _, _ := moderationFixture()
	reports.getByIDFn = func(id uint) (*models.Report, error) {
		return &models.Report{ID: id, AccusedID: 9, Status: models.ReportPending}, nil
	}
	var countedFor uint
	reports.countApprovedByAccusedFn = func(accusedID uint) (int64, error) {
		countedFor = accusedID
		return 2, nil
	}

	detail, err := svc.GetReport(context.Background(), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Report == nil || detail.Report.ID != 4 {
		t.Fatalf("expected report 4, got %+v", detail.Report)
	}
	if countedFor != 9 {
		t.Fatalf("expected history counted for the accused, got %d", countedFor)
	}
	if detail.AccusedApprovedReports != 2 {
		t.Fatalf("expected 2 upheld reports, got %d", detail.AccusedApprovedReports)
	}
}

func TestApplyBanFirstStrikeIsTemporary(t *testing.T) {
	svc, _, bans, profiles, _ := moderationFixture()
	profiles.getByIDFn = func(id uint) (*models.Profile, error) {
		return &models.Profile{ID: id, RiotID: "Player#EUW", BanCount: 0}, nil
	}
	var blacklisted bool
	bans.blacklistRiotIDFn = func(string, uint) error {
		blacklisted = true
		return nil
	}
	var fields map[string]interface{}
	profiles.updateFieldsFn = func(_ uint, f map[string]interface{}) error {
		fields = f
		return nil
	}

	ban, err := svc.ApplyBan(context.Background(), 6, 1, nil, "first strike")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ban.Type != models.BanTemporary || ban.ExpiresAt == nil {
		t.Fatalf("expected temporary ban with expiry, got %+v", ban)
	}
	if got := time.Until(*ban.ExpiresAt); got < 23*time.Hour || got > 25*time.Hour {
		t.Fatalf("expected roughly 24h ban, got %s", got)
	}
	if blacklisted {
		t.Fatal("first strike must not blacklist the Riot identity")
	}
	if fields["ban_count"] != 1 {
		t.Fatalf("expected ban_count 1, got %v", fields["ban_count"])
	}
}

func TestApplyBanSecondStrikeIsPermanent(t *testing.T) {
	svc, _, bans, profiles, _ := moderationFixture()
	profiles.getByIDFn = func(id uint) (*models.Profile, error) {
		return &models.Profile{ID: id, RiotID: "Player#EUW", BanCount: 1}, nil
	}
	var blacklistedID string
	bans.blacklistRiotIDFn = func(riotID string, _ uint) error {
		blacklistedID = riotID
		return nil
	}
	var fields map[string]interface{}
	profiles.updateFieldsFn = func(_ uint, f map[string]interface{}) error {
		fields = f
		return nil
	}

	ban, err := svc.ApplyBan(context.Background(), 6, 1, nil, "second strike")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ban.Type != models.BanPermanent || ban.ExpiresAt != nil {
		t.Fatalf("expected permanent ban, got %+v", ban)
	}
	if blacklistedID != "Player#EUW" {
		t.Fatalf("expected Riot identity blacklisted, got %q", blacklistedID)
	}
	if fields["banned_until"] != nil {
		t.Fatalf("expected banned_until cleared for permanent ban, got %v", fields["banned_until"])
	}
}

func TestResolveReportApprovalBansAccused(t *testing.T) {
	svc, reports, bans, profiles, _ := moderationFixture()
	reports.getByIDFn = func(id uint) (*models.Report, error) {
		return &models.Report{
			ID:         id,
			AccusedID:  6,
			Status:     models.ReportPending,
			Violations: models.StringList{string(models.ViolationHarassment)},
		}, nil
	}
	profiles.getByIDFn = func(id uint) (*models.Profile, error) {
		return &models.Profile{ID: id}, nil
	}
	var banIssued *models.Ban
	bans.createFn = func(b *models.Ban) error {
		banIssued = b
		return nil
	}

	if _, err := svc.ResolveReport(context.Background(), 11, 1, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if banIssued == nil || banIssued.UserID != 6 {
		t.Fatalf("expected ban against accused, got %+v", banIssued)
	}
}

func TestResolveReportRejectionIssuesNoBan(t *testing.T) {
	svc, _, bans, _, _ := moderationFixture()
	var banIssued bool
	bans.createFn = func(*models.Ban) error {
		banIssued = true
		return nil
	}

	if _, err := svc.ResolveReport(context.Background(), 11, 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if banIssued {
		t.Fatal("rejected report must not issue a ban")
	}
}

func TestResolveReportAlreadyResolvedConflicts(t *testing.T) {
	svc, reports, _, _, _ := moderationFixture()
	reports.resolveFn = func(uint, map[string]interface{}) error {
		return models.NewConflictError("Report already resolved")
	}

	_, err := svc.ResolveReport(context.Background(), 11, 1, true)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	appErr, ok := err.(*models.AppError)
	if !ok || appErr.Code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %#v", err)
	}
}

func TestUnbanRefundsStrike(t *testing.T) {
	svc, _, bans, profiles, _ := moderationFixture()
	bans.getByIDFn = func(id uint) (*models.Ban, error) {
		return &models.Ban{ID: id, UserID: 6, Type: models.BanPermanent}, nil
	}
	profiles.getByIDFn = func(id uint) (*models.Profile, error) {
		return &models.Profile{ID: id, BanCount: 2}, nil
	}
	var fields map[string]interface{}
	profiles.updateFieldsFn = func(_ uint, f map[string]interface{}) error {
		fields = f
		return nil
	}
	var deleted uint
	bans.deleteFn = func(id uint) error {
		deleted = id
		return nil
	}

	if err := svc.Unban(context.Background(), 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 9 {
		t.Fatalf("expected ban 9 deleted, got %d", deleted)
	}
	if fields["ban_count"] != 1 || fields["banned_until"] != nil {
		t.Fatalf("expected strike refunded and suspension cleared, got %v", fields)
	}
}

func TestStatsAggregatesCounters(t *testing.T) {
	svc, reports, bans, profiles, rooms := moderationFixture()
	reports.countByStatusFn = func(models.ReportStatus) (int64, error) { return 4, nil }
	bans.countFn = func() (int64, error) { return 2, nil }
	profiles.countFn = func() (int64, error) { return 100, nil }
	rooms.countActiveFn = func() (int64, error) { return 7, nil }

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.PendingReports != 4 || stats.TotalBans != 2 || stats.TotalUsers != 100 || stats.ActiveRooms != 7 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
