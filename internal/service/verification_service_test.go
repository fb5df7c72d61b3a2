package service

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/riot"
)

type accountAPIStub struct {
	accountByRiotIDFn         func(string, string) (*riot.Account, error)
	summonerByPUUIDFn         func(string) (*riot.Summoner, error)
	leagueEntriesBySummonerFn func(string) ([]riot.LeagueEntry, error)
}

func (s *accountAPIStub) AccountByRiotID(_ context.Context, gameName, tagLine string) (*riot.Account, error) {
	return s.accountByRiotIDFn(gameName, tagLine)
}
func (s *accountAPIStub) SummonerByPUUID(_ context.Context, puuid string) (*riot.Summoner, error) {
	return s.summonerByPUUIDFn(puuid)
}
func (s *accountAPIStub) LeagueEntriesBySummoner(_ context.Context, summonerID string) ([]riot.LeagueEntry, error) {
	return s.leagueEntriesBySummonerFn(summonerID)
}

type captureSender struct {
	email string
	code  string
}

func (c *captureSender) SendCode(_ context.Context, email, code string) error {
	c.email = email
	c.code = code
	return nil
}

func TestSendVerificationCodeStoresHashNotCode(t *testing.T) {
	codes := noopCodeRepo()
	var stored *models.VerificationCode
	codes.createFn = func(c *models.VerificationCode) error {
		c.ID = 1
		stored = c
		return nil
	}
	sender := &captureSender{}
	svc := NewVerificationService(codes, noopProfileRepo(), noopBanRepo(), &accountAPIStub{}, sender)

	if err := svc.SendVerificationCode(context.Background(), "Player@Example.com "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.email != "player@example.com" {
		t.Fatalf("expected normalized email, got %q", sender.email)
	}
	if len(sender.code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", sender.code)
	}
	if stored == nil || stored.CodeHash == sender.code {
		t.Fatal("expected only a hash to be persisted")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(sender.code)); err != nil {
		t.Fatalf("stored hash does not match issued code: %v", err)
	}
}

func TestSendVerificationCodeRejectsBadEmail(t *testing.T) {
	svc := NewVerificationService(noopCodeRepo(), noopProfileRepo(), noopBanRepo(), &accountAPIStub{}, &captureSender{})
	if err := svc.SendVerificationCode(context.Background(), "not-an-email"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestVerifyEmailCodeWrongCodeCountsAttempt(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("123456"), verificationCodeCost)
	codes := noopCodeRepo()
	codes.latestByEmailFn = func(string) (*models.VerificationCode, error) {
		return &models.VerificationCode{
			ID:          1,
			Email:       "p@example.com",
			CodeHash:    string(hash),
			ExpiresAt:   time.Now().Add(5 * time.Minute),
			MaxAttempts: models.VerificationMaxAttempts,
		}, nil
	}
	var attempts int
	codes.incrementAttemptsFn = func(uint) error {
		attempts++
		return nil
	}
	svc := NewVerificationService(codes, noopProfileRepo(), noopBanRepo(), &accountAPIStub{}, &captureSender{})

	if _, err := svc.VerifyEmailCode(context.Background(), "p@example.com", "654321"); err == nil {
		t.Fatal("expected validation error for wrong code")
	}
	if attempts != 1 {
		t.Fatalf("expected one attempt recorded, got %d", attempts)
	}
}

func TestVerifyEmailCodeExpiredRejected(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("123456"), verificationCodeCost)
	codes := noopCodeRepo()
	codes.latestByEmailFn = func(string) (*models.VerificationCode, error) {
		return &models.VerificationCode{
			ID:          1,
			CodeHash:    string(hash),
			ExpiresAt:   time.Now().Add(-time.Minute),
			MaxAttempts: models.VerificationMaxAttempts,
		}, nil
	}
	svc := NewVerificationService(codes, noopProfileRepo(), noopBanRepo(), &accountAPIStub{}, &captureSender{})

	if _, err := svc.VerifyEmailCode(context.Background(), "p@example.com", "123456"); err == nil {
		t.Fatal("expected validation error for expired code")
	}
}

func TestVerifyEmailCodeExhaustedAttemptsRejected(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("123456"), verificationCodeCost)
	codes := noopCodeRepo()
	codes.latestByEmailFn = func(string) (*models.VerificationCode, error) {
		return &models.VerificationCode{
			ID:          1,
			CodeHash:    string(hash),
			ExpiresAt:   time.Now().Add(5 * time.Minute),
			Attempts:    models.VerificationMaxAttempts,
			MaxAttempts: models.VerificationMaxAttempts,
		}, nil
	}
	svc := NewVerificationService(codes, noopProfileRepo(), noopBanRepo(), &accountAPIStub{}, &captureSender{})

	if _, err := svc.VerifyEmailCode(context.Background(), "p@example.com", "123456"); err == nil {
		t.Fatal("expected validation error after attempt limit")
	}
}

func TestVerifyEmailCodeMarksUsedOnSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("123456"), verificationCodeCost)
	codes := noopCodeRepo()
	codes.latestByEmailFn = func(string) (*models.VerificationCode, error) {
		return &models.VerificationCode{
			ID:          1,
			CodeHash:    string(hash),
			ExpiresAt:   time.Now().Add(5 * time.Minute),
			MaxAttempts: models.VerificationMaxAttempts,
		}, nil
	}
	var used bool
	codes.markUsedFn = func(uint, time.Time) error {
		used = true
		return nil
	}
	svc := NewVerificationService(codes, noopProfileRepo(), noopBanRepo(), &accountAPIStub{}, &captureSender{})

	token, err := svc.VerifyEmailCode(context.Background(), "p@example.com", "123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !used {
		t.Fatal("expected code marked used")
	}
	if token == "" {
		t.Fatal("expected a signup token")
	}
}

func TestStartRiotVerificationRejectsBlacklistedIdentity(t *testing.T) {
	bans := noopBanRepo()
	bans.isRiotIDBannedFn = func(string) (bool, error) { return true, nil }
	api := &accountAPIStub{
		accountByRiotIDFn: func(gameName, tagLine string) (*riot.Account, error) {
			return &riot.Account{PUUID: "p1", GameName: gameName, TagLine: tagLine}, nil
		},
	}
	svc := NewVerificationService(noopCodeRepo(), noopProfileRepo(), bans, api, &captureSender{})

	_, err := svc.StartRiotVerification(context.Background(), 7, "Player", "EUW")
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	appErr, ok := err.(*models.AppError)
	if !ok || appErr.Code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %#v", err)
	}
}

func TestStartRiotVerificationRejectsTakenIdentity(t *testing.T) {
	profiles := noopProfileRepo()
	profiles.getByRiotIDFn = func(riotID string) (*models.Profile, error) {
		return &models.Profile{ID: 99, RiotID: riotID}, nil
	}
	api := &accountAPIStub{
		accountByRiotIDFn: func(gameName, tagLine string) (*riot.Account, error) {
			return &riot.Account{PUUID: "p1", GameName: gameName, TagLine: tagLine}, nil
		},
	}
	svc := NewVerificationService(noopCodeRepo(), profiles, noopBanRepo(), api, &captureSender{})

	_, err := svc.StartRiotVerification(context.Background(), 7, "Player", "EUW")
	if err == nil {
		t.Fatal("expected conflict error")
	}
	appErr, ok := err.(*models.AppError)
	if !ok || appErr.Code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %#v", err)
	}
}

func TestStartRiotVerificationUnknownAccount(t *testing.T) {
	api := &accountAPIStub{
		accountByRiotIDFn: func(string, string) (*riot.Account, error) {
			return nil, riot.ErrNotFound
		},
	}
	svc := NewVerificationService(noopCodeRepo(), noopProfileRepo(), noopBanRepo(), api, &captureSender{})

	_, err := svc.StartRiotVerification(context.Background(), 7, "Ghost", "EUW")
	if err == nil {
		t.Fatal("expected not-found error")
	}
	appErr, ok := err.(*models.AppError)
	if !ok || appErr.Code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %#v", err)
	}
}

func TestPickTargetIconAvoidsCurrent(t *testing.T) {
	for i := 0; i < 50; i++ {
		icon, err := pickTargetIcon(5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if icon == 5 {
			t.Fatal("target icon must differ from the current icon")
		}
		if icon < 0 || icon > 28 {
			t.Fatalf("target icon out of starter range: %d", icon)
		}
	}
}

func TestRefreshRankSkipsFreshData(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	profiles := noopProfileRepo()
	profiles.getByIDFn = func(id uint) (*models.Profile, error) {
		return &models.Profile{
			ID:            id,
			IsVerified:    true,
			SummonerID:    "s1",
			RankUpdatedAt: &recent,
		}, nil
	}
	var fetched bool
	api := &accountAPIStub{
		leagueEntriesBySummonerFn: func(string) ([]riot.LeagueEntry, error) {
			fetched = true
			return nil, nil
		},
	}
	svc := NewVerificationService(noopCodeRepo(), profiles, noopBanRepo(), api, &captureSender{})

	if _, err := svc.RefreshRank(context.Background(), 7, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetched {
		t.Fatal("fresh rank data must not trigger an API call")
	}
}

func TestRefreshRankForceUpdatesFields(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	profiles := noopProfileRepo()
	profiles.getByIDFn = func(id uint) (*models.Profile, error) {
		return &models.Profile{ID: id, IsVerified: true, SummonerID: "s1", RankUpdatedAt: &recent}, nil
	}
	var fields map[string]interface{}
	profiles.updateFieldsFn = func(_ uint, f map[string]interface{}) error {
		fields = f
		return nil
	}
	api := &accountAPIStub{
		leagueEntriesBySummonerFn: func(string) ([]riot.LeagueEntry, error) {
			return []riot.LeagueEntry{
				{QueueType: "RANKED_TFT_TURBO", Tier: "ORANGE"},
				{QueueType: riot.RankedTFTQueue, Tier: "DIAMOND", Rank: "II", LeaguePoints: 54, Wins: 40, Losses: 31},
			}, nil
		},
	}
	svc := NewVerificationService(noopCodeRepo(), profiles, noopBanRepo(), api, &captureSender{})

	if _, err := svc.RefreshRank(context.Background(), 7, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["rank_tier"] != "DIAMOND" || fields["rank_division"] != "II" {
		t.Fatalf("expected standard ranked entry used, got %v", fields)
	}
	if fields["league_points"] != 54 {
		t.Fatalf("expected 54 LP, got %v", fields["league_points"])
	}
}

func TestRefreshRankUnverifiedRejected(t *testing.T) {
	profiles := noopProfileRepo()
	profiles.getByIDFn = func(id uint) (*models.Profile, error) {
		return &models.Profile{ID: id}, nil
	}
	svc := NewVerificationService(noopCodeRepo(), profiles, noopBanRepo(), &accountAPIStub{}, &captureSender{})

	if _, err := svc.RefreshRank(context.Background(), 7, true); err == nil {
		t.Fatal("expected validation error")
	}
}
