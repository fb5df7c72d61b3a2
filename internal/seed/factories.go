// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions tunes factory behaviour.
type SeedOptions struct {
	// DryRun logs what would be created without touching the database.
	DryRun bool
	// SkipBcrypt stores plaintext passwords to make large seeds fast.
	SkipBcrypt bool
	// MaxDays spreads created_at timestamps over this many past days.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

var rankTiers = []string{
	"IRON", "BRONZE", "SILVER", "GOLD", "PLATINUM",
	"EMERALD", "DIAMOND", "MASTER", "GRANDMASTER", "CHALLENGER",
}

var rankDivisions = []string{"I", "II", "III", "IV"}

// pastTime returns a timestamp spread over the configured day window.
func (f *Factory) pastTime(r *rand.Rand) time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := r.Intn(maxDays)
	hoursBack := r.Intn(24)
	minsBack := r.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateProfile constructs and persists a sample `models.Profile`.
// Optional override functions may modify the generated profile before saving.
func (f *Factory) CreateProfile(overrides ...func(*models.Profile)) (*models.Profile, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	username := gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	profile := &models.Profile{
		Username:      username,
		Email:         gofakeit.Email(),
		RiotID:        fmt.Sprintf("%s#%s", gofakeit.Gamertag(), gofakeit.LetterN(3)),
		RiotPUUID:     gofakeit.UUID(),
		SummonerID:    gofakeit.UUID(),
		ProfileIconID: gofakeit.Number(1, 30),
		IsVerified:    true,
		RankTier:      rankTiers[r.Intn(len(rankTiers))],
		RankDivision:  rankDivisions[r.Intn(len(rankDivisions))],
		LeaguePoints:  gofakeit.Number(0, 100),
		Wins:          gofakeit.Number(0, 400),
		Losses:        gofakeit.Number(0, 400),
		GamesPlayed:   gofakeit.Number(0, 60),
		CreatedAt:     f.pastTime(r),
	}
	profile.GamesWon = gofakeit.Number(0, profile.GamesPlayed)

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		profile.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		profile.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(profile)
	}

	if f.opts.DryRun {
		f.nextID++
		profile.ID = f.nextID
		log.Printf("[dry-run] CreateProfile: %s (%s)", profile.Username, profile.RiotID)
		return profile, nil
	}

	if err := f.db.Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// CreateRoom constructs and persists a `models.Room` hosted by the first
// member, with every member listed as a player.
func (f *Factory) CreateRoom(members []models.Profile, status models.RoomStatus, overrides ...func(*models.Room)) (*models.Room, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("a room needs at least one member")
	}

	players := make(models.UintList, 0, len(members))
	for _, m := range members {
		players = append(players, m.ID)
	}

	room := &models.Room{
		Status:        status,
		HostID:        members[0].ID,
		Players:       players,
		PlayersAgreed: models.UintList{members[0].ID},
		Rules:         models.StringList(roomRuleSet()),
		MaxPlayers:    8,
	}
	if status == models.RoomReady || status == models.RoomPlaying || status == models.RoomCompleted {
		room.PlayersAgreed = players
		room.MaxPlayers = len(players)
	}

	for _, override := range overrides {
		override(room)
	}

	if f.opts.DryRun {
		f.nextID++
		room.ID = f.nextID
		log.Printf("[dry-run] CreateRoom: status=%s players=%d", room.Status, len(room.Players))
		return room, nil
	}

	if err := f.db.Create(room).Error; err != nil {
		return nil, err
	}
	return room, nil
}

// CreateRoomMessage persists a chat message from `sender` in `room`.
func (f *Factory) CreateRoomMessage(room *models.Room, sender *models.Profile, overrides ...func(*models.RoomMessage)) (*models.RoomMessage, error) {
	message := &models.RoomMessage{
		RoomID:  room.ID,
		UserID:  sender.ID,
		Content: gofakeit.Sentence(8),
	}

	for _, override := range overrides {
		override(message)
	}

	if f.opts.DryRun {
		f.nextID++
		message.ID = f.nextID
		return message, nil
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// CreateQueueEntry puts a profile into the matchmaking queue.
func (f *Factory) CreateQueueEntry(profile *models.Profile) (*models.QueueEntry, error) {
	entry := &models.QueueEntry{UserID: profile.ID}

	if f.opts.DryRun {
		f.nextID++
		entry.ID = f.nextID
		return entry, nil
	}

	if err := f.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateReport files an accusation from `reporter` against `accused` in
// the given room.
func (f *Factory) CreateReport(reporter, accused *models.Profile, room *models.Room, overrides ...func(*models.Report)) (*models.Report, error) {
	violations := []string{string(models.ViolationGameSabotage)}
	if gofakeit.Bool() {
		violations = append(violations, string(models.ViolationHarassment))
	}

	report := &models.Report{
		ReporterID:  reporter.ID,
		AccusedID:   accused.ID,
		RoomID:      room.ID,
		Violations:  models.StringList(violations),
		Description: gofakeit.Sentence(12),
		Status:      models.ReportPending,
	}

	for _, override := range overrides {
		override(report)
	}

	if f.opts.DryRun {
		f.nextID++
		report.ID = f.nextID
		return report, nil
	}

	if err := f.db.Create(report).Error; err != nil {
		return nil, err
	}
	return report, nil
}

// CreateBan sanctions `target`, optionally tied to a report.
func (f *Factory) CreateBan(target *models.Profile, issuedBy uint, banType models.BanType, overrides ...func(*models.Ban)) (*models.Ban, error) {
	ban := &models.Ban{
		UserID:   target.ID,
		IssuedBy: issuedBy,
		Type:     banType,
		Reason:   gofakeit.Sentence(6),
	}
	if banType == models.BanTemporary {
		expires := time.Now().Add(models.TemporaryBanDuration)
		ban.ExpiresAt = &expires
	}

	for _, override := range overrides {
		override(ban)
	}

	if f.opts.DryRun {
		f.nextID++
		ban.ID = f.nextID
		return ban, nil
	}

	if err := f.db.Create(ban).Error; err != nil {
		return nil, err
	}
	return ban, nil
}
