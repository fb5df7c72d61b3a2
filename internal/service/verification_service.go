package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tungtase04539/TFT-Finder/internal/cache"
	"github.com/tungtase04539/TFT-Finder/internal/middleware"
	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/observability"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
	"github.com/tungtase04539/TFT-Finder/internal/riot"
)

const (
	verificationCodeCost = 10

	// Email code sends are capped per address, not per IP, so one person
	// cannot drain the mail quota for a shared network.
	codeSendLimit  = 3
	codeSendWindow = 10 * time.Minute

	rankRefreshInterval = 24 * time.Hour
)

// AccountAPI is the slice of the Riot client used for identity verification
// and rank refresh.
type AccountAPI interface {
	AccountByRiotID(ctx context.Context, gameName, tagLine string) (*riot.Account, error)
	SummonerByPUUID(ctx context.Context, puuid string) (*riot.Summoner, error)
	LeagueEntriesBySummoner(ctx context.Context, summonerID string) ([]riot.LeagueEntry, error)
}

// CodeSender delivers a verification code to an email address.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogCodeSender writes codes to the application log instead of sending mail.
type LogCodeSender struct{}

// SendCode logs the code. Deliberately at info level so local signup flows
// are usable without a mail provider.
func (LogCodeSender) SendCode(ctx context.Context, email, code string) error {
	observability.GlobalLogger.InfoContext(ctx, "verification code issued",
		slog.String("email", email),
		slog.String("code", code),
	)
	return nil
}

// VerificationService handles emailed signup codes and Riot account
// ownership verification.
type VerificationService struct {
	codes    repository.VerificationCodeRepository
	profiles repository.ProfileRepository
	bans     repository.BanRepository
	riot     AccountAPI
	sender   CodeSender
}

// NewVerificationService returns a new VerificationService.
func NewVerificationService(
	codes repository.VerificationCodeRepository,
	profiles repository.ProfileRepository,
	bans repository.BanRepository,
	riotAPI AccountAPI,
	sender CodeSender,
) *VerificationService {
	if sender == nil {
		sender = LogCodeSender{}
	}
	return &VerificationService{codes: codes, profiles: profiles, bans: bans, riot: riotAPI, sender: sender}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SendVerificationCode issues a fresh 6-digit code to the address. Sends are
// limited to 3 per address per 10 minutes.
func (s *VerificationService) SendVerificationCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return models.NewValidationError("A valid email address is required")
	}

	allowed, err := middleware.CheckRateLimit(ctx, cache.GetClient(), "verify_email", email, codeSendLimit, codeSendWindow)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "verification rate limit check failed", slog.String("error", err.Error()))
	} else if !allowed {
		return models.NewRateLimitError("Too many verification codes requested, try again later")
	}

	code, err := generateCode()
	if err != nil {
		return models.NewInternalError(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), verificationCodeCost)
	if err != nil {
		return models.NewInternalError(err)
	}

	record := &models.VerificationCode{
		Email:       email,
		CodeHash:    string(hash),
		ExpiresAt:   time.Now().Add(models.VerificationCodeTTL),
		MaxAttempts: models.VerificationMaxAttempts,
	}
	if err := s.codes.Create(ctx, record); err != nil {
		return err
	}
	return s.sender.SendCode(ctx, email, code)
}

// VerifyEmailCode redeems the latest code for the address. On success it
// returns a short-lived token the signup endpoint accepts as proof.
func (s *VerificationService) VerifyEmailCode(ctx context.Context, email, code string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	record, err := s.codes.LatestByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", models.NewValidationError("No verification code found for this email")
	}
	if !record.Redeemable(time.Now()) {
		return "", models.NewValidationError("Verification code expired, request a new one")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)); err != nil {
		if incErr := s.codes.IncrementAttempts(ctx, record.ID); incErr != nil {
			observability.GlobalLogger.WarnContext(ctx, "failed to record code attempt", slog.String("error", incErr.Error()))
		}
		return "", models.NewValidationError("Incorrect verification code")
	}

	if err := s.codes.MarkUsed(ctx, record.ID, time.Now()); err != nil {
		return "", err
	}

	token := uuid.NewString()
	if rdb := cache.GetClient(); rdb != nil {
		if err := rdb.Set(ctx, cache.VerifyTokenKey(token), email, cache.VerifyTokenTTL).Err(); err != nil {
			return "", models.NewInternalError(err)
		}
	}
	return token, nil
}

// ConsumeVerifyToken checks a signup proof token and burns it. It returns
// the email the token was issued for.
func (s *VerificationService) ConsumeVerifyToken(ctx context.Context, token string) (string, error) {
	rdb := cache.GetClient()
	if rdb == nil {
		return "", models.NewInternalError(errors.New("verification store unavailable"))
	}
	email, err := rdb.GetDel(ctx, cache.VerifyTokenKey(token)).Result()
	if err != nil {
		return "", models.NewValidationError("Invalid or expired verification token")
	}
	return email, nil
}

// riotChallenge is the pending icon-change proof stored in Redis.
type riotChallenge struct {
	RiotID     string `json:"riot_id"`
	PUUID      string `json:"puuid"`
	SummonerID string `json:"summoner_id"`
	TargetIcon int    `json:"target_icon"`
}

// RiotChallenge is the public view of a pending ownership challenge.
type RiotChallenge struct {
	RiotID     string `json:"riot_id"`
	TargetIcon int    `json:"target_icon"`
}

// StartRiotVerification resolves the Riot ID and issues an icon-change
// challenge: the user proves ownership by switching their in-game profile
// icon to the requested one. Blacklisted identities are rejected up front.
func (s *VerificationService) StartRiotVerification(ctx context.Context, userID uint, gameName, tagLine string) (*RiotChallenge, error) {
	gameName = strings.TrimSpace(gameName)
	tagLine = strings.TrimSpace(strings.TrimPrefix(tagLine, "#"))
	if gameName == "" || tagLine == "" {
		return nil, models.NewValidationError("Both game name and tag line are required")
	}

	account, err := s.riot.AccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		if errors.Is(err, riot.ErrNotFound) {
			return nil, models.NewNotFoundError("Riot account", gameName+"#"+tagLine)
		}
		return nil, models.NewInternalError(err)
	}
	riotID := account.GameName + "#" + account.TagLine

	banned, err := s.bans.IsRiotIDBanned(ctx, riotID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, models.NewForbiddenError("This Riot account is not eligible for verification")
	}

	existing, err := s.profiles.GetByRiotID(ctx, riotID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != userID {
		return nil, models.NewConflictError("This Riot account is already linked to another profile")
	}

	summoner, err := s.riot.SummonerByPUUID(ctx, account.PUUID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	target, err := pickTargetIcon(summoner.ProfileIconID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	challenge := riotChallenge{
		RiotID:     riotID,
		PUUID:      account.PUUID,
		SummonerID: summoner.ID,
		TargetIcon: target,
	}
	payload, err := json.Marshal(challenge)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	rdb := cache.GetClient()
	if rdb == nil {
		return nil, models.NewInternalError(errors.New("verification store unavailable"))
	}
	if err := rdb.Set(ctx, cache.RiotChallengeKey(userID), payload, cache.RiotChallengeTTL).Err(); err != nil {
		return nil, models.NewInternalError(err)
	}

	return &RiotChallenge{RiotID: riotID, TargetIcon: target}, nil
}

// pickTargetIcon chooses a random starter icon different from the current
// one. Starter icons 0..28 are available to every account.
func pickTargetIcon(current int) (int, error) {
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(29))
		if err != nil {
			return 0, err
		}
		if int(n.Int64()) != current {
			return int(n.Int64()), nil
		}
	}
	return (current + 1) % 29, nil
}

// CompleteRiotVerification re-reads the summoner and, if the icon matches
// the challenge, permanently links the Riot identity to the profile.
func (s *VerificationService) CompleteRiotVerification(ctx context.Context, userID uint) (*models.Profile, error) {
	rdb := cache.GetClient()
	if rdb == nil {
		return nil, models.NewInternalError(errors.New("verification store unavailable"))
	}
	payload, err := rdb.Get(ctx, cache.RiotChallengeKey(userID)).Bytes()
	if err != nil {
		return nil, models.NewValidationError("No pending verification, start over")
	}
	var challenge riotChallenge
	if err := json.Unmarshal(payload, &challenge); err != nil {
		return nil, models.NewInternalError(err)
	}

	summoner, err := s.riot.SummonerByPUUID(ctx, challenge.PUUID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if summoner.ProfileIconID != challenge.TargetIcon {
		return nil, models.NewValidationError("Profile icon does not match yet, change it in the client and retry")
	}

	fields := map[string]interface{}{
		"riot_id":         challenge.RiotID,
		"riot_puuid":      challenge.PUUID,
		"summoner_id":     challenge.SummonerID,
		"profile_icon_id": summoner.ProfileIconID,
		"is_verified":     true,
	}
	if err := s.profiles.UpdateFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	rdb.Del(ctx, cache.RiotChallengeKey(userID))

	if err := s.refreshRankFields(ctx, userID, challenge.SummonerID); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "initial rank refresh failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
	return s.profiles.GetByID(ctx, userID)
}

// RefreshRank updates the profile's ranked standing if it is stale. Rank
// data is refreshed at most once per day unless forced.
func (s *VerificationService) RefreshRank(ctx context.Context, userID uint, force bool) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsVerified || profile.SummonerID == "" {
		return nil, models.NewValidationError("Profile has no verified Riot account")
	}
	if !force && profile.RankUpdatedAt != nil && time.Since(*profile.RankUpdatedAt) < rankRefreshInterval {
		return profile, nil
	}
	if err := s.refreshRankFields(ctx, userID, profile.SummonerID); err != nil {
		return nil, err
	}
	return s.profiles.GetByID(ctx, userID)
}

// RefreshStalestRanks refreshes up to limit verified profiles whose rank
// data is the oldest. The background worker calls this on a schedule.
func (s *VerificationService) RefreshStalestRanks(ctx context.Context, limit int) (int, error) {
	stale, err := s.profiles.StalestRanked(ctx, time.Now().Add(-rankRefreshInterval), limit)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, profile := range stale {
		if err := s.refreshRankFields(ctx, profile.ID, profile.SummonerID); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "rank refresh failed",
				slog.Uint64("user_id", uint64(profile.ID)),
				slog.String("error", err.Error()),
			)
			if errors.Is(err, riot.ErrRateLimited) {
				break
			}
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

func (s *VerificationService) refreshRankFields(ctx context.Context, userID uint, summonerID string) error {
	entries, err := s.riot.LeagueEntriesBySummoner(ctx, summonerID)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"rank_tier":       "",
		"rank_division":   "",
		"league_points":   0,
		"wins":            0,
		"losses":          0,
		"rank_updated_at": time.Now(),
	}
	for _, entry := range entries {
		if entry.QueueType != riot.RankedTFTQueue {
			continue
		}
		fields["rank_tier"] = entry.Tier
		fields["rank_division"] = entry.Rank
		fields["league_points"] = entry.LeaguePoints
		fields["wins"] = entry.Wins
		fields["losses"] = entry.Losses
		break
	}
	return s.profiles.UpdateFields(ctx, userID, fields)
}
