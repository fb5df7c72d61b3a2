// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumRooms    int
	ShouldClean bool
}

var ruleCatalog = []string{
	"No Prismatic traits",
	"Pacifist until stage 3",
	"Krugs must be slow rolled",
	"No duplicate comps, first to pick keeps it",
	"Only vertical traits allowed",
	"No augments rerolls",
	"Max one 5-cost unit per board",
	"Loser of each stage buys a round",
	"No item components before carousel 2",
	"All-in on first carousel champion",
	"Open fort until 50 HP",
	"No economy traits",
}

// roomRuleSet picks a small random subset of the rule catalog.
func roomRuleSet() []string {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	count := 1 + r.Intn(3)
	picked := make([]string, 0, count)
	for _, idx := range r.Perm(len(ruleCatalog))[:count] {
		picked = append(picked, ruleCatalog[idx])
	}
	return picked
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d rooms...", opts.NumUsers, opts.NumRooms)

	// Clear existing data to avoid conflicts if requested
	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	factory := NewFactory(db, SeedOptions{MaxDays: 60})

	profiles, err := createProfiles(factory, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create profiles: %w", err)
	}
	log.Printf("✓ %d test profiles created", len(profiles))

	rooms, err := createRooms(factory, profiles, opts.NumRooms)
	if err != nil {
		return fmt.Errorf("failed to create rooms: %w", err)
	}
	log.Printf("✓ %d rooms created", len(rooms))

	messages, err := createRoomChatter(factory, rooms, profiles)
	if err != nil {
		return fmt.Errorf("failed to create room messages: %w", err)
	}
	log.Printf("✓ %d room messages created", messages)

	queued, err := fillQueue(factory, rooms, profiles)
	if err != nil {
		return fmt.Errorf("failed to fill queue: %w", err)
	}
	log.Printf("✓ %d players queued", queued)

	if err := createModerationSamples(factory, rooms, profiles); err != nil {
		return fmt.Errorf("failed to create moderation samples: %w", err)
	}
	log.Println("✓ sample reports and bans created")

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

func createProfiles(factory *Factory, count int) ([]models.Profile, error) {
	if count <= 0 {
		count = 24
	}
	profiles := make([]models.Profile, 0, count)
	for i := 0; i < count; i++ {
		profile, err := factory.CreateProfile()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

// createRooms distributes profiles across rooms without double-booking
// anyone into two active rooms.
func createRooms(factory *Factory, profiles []models.Profile, count int) ([]models.Room, error) {
	if count <= 0 {
		count = 6
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	statuses := []models.RoomStatus{
		models.RoomForming, models.RoomForming, models.RoomForming,
		models.RoomReady, models.RoomPlaying, models.RoomCompleted,
	}

	rooms := make([]models.Room, 0, count)
	cursor := 0
	for i := 0; i < count; i++ {
		status := statuses[i%len(statuses)]

		size := 2 + r.Intn(4)
		if status != models.RoomForming {
			size = 8
		}
		if cursor+size > len(profiles) {
			// Completed rooms do not hold membership, so reuse is fine.
			// For active rooms we stop once everyone is placed.
			if status != models.RoomCompleted {
				break
			}
			cursor = 0
		}
		members := profiles[cursor : cursor+size]
		cursor += size

		room, err := factory.CreateRoom(members, status)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

func createRoomChatter(factory *Factory, rooms []models.Room, profiles []models.Profile) (int, error) {
	//nolint:gosec // Weak random number generator is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	byID := make(map[uint]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	total := 0
	for i := range rooms {
		room := &rooms[i]
		count := 2 + r.Intn(6)
		for j := 0; j < count; j++ {
			sender, ok := byID[room.Players[r.Intn(len(room.Players))]]
			if !ok {
				continue
			}
			if _, err := factory.CreateRoomMessage(room, &sender); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

// fillQueue enqueues profiles that ended up in no active room.
func fillQueue(factory *Factory, rooms []models.Room, profiles []models.Profile) (int, error) {
	occupied := make(map[uint]bool)
	for _, room := range rooms {
		if !room.IsActive() {
			continue
		}
		for _, id := range room.Players {
			occupied[id] = true
		}
	}

	queued := 0
	for i := range profiles {
		if occupied[profiles[i].ID] {
			continue
		}
		if _, err := factory.CreateQueueEntry(&profiles[i]); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

func createModerationSamples(factory *Factory, rooms []models.Room, profiles []models.Profile) error {
	if len(rooms) == 0 || len(profiles) < 3 {
		return nil
	}
	room := &rooms[0]
	if len(room.Players) < 2 {
		return nil
	}

	byID := make(map[uint]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	reporter := byID[room.Players[0]]
	accused := byID[room.Players[1]]

	// One pending report waiting for review.
	if _, err := factory.CreateReport(&reporter, &accused, room); err != nil {
		return err
	}

	// One already-approved report with its resulting temporary ban.
	now := time.Now()
	report, err := factory.CreateReport(&reporter, &accused, room, func(r *models.Report) {
		r.Status = models.ReportApproved
		r.ReviewedBy = &reporter.ID
		r.ReviewedAt = &now
	})
	if err != nil {
		return err
	}
	_, err = factory.CreateBan(&accused, reporter.ID, models.BanTemporary, func(b *models.Ban) {
		b.ReportID = &report.ID
	})
	return err
}

// clearData truncates all seeded tables.
func clearData(db *gorm.DB) error {
	log.Println("🧹 Clearing existing data...")
	tables := []string{
		"match_results",
		"room_messages",
		"verification_codes",
		"queue_entries",
		"bans",
		"banned_riot_ids",
		"reports",
		"rooms",
		"profiles",
	}
	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf(`TRUNCATE TABLE "%s" RESTART IDENTITY CASCADE`, table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
