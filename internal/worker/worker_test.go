package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
	"github.com/tungtase04539/TFT-Finder/internal/riot"
	"github.com/tungtase04539/TFT-Finder/internal/service"
)

func TestParseDurationOr(t *testing.T) {
	tests := []struct {
		raw      string
		fallback time.Duration
		expected time.Duration
	}{
		{"", time.Minute, time.Minute},
		{"45s", time.Minute, 45 * time.Second},
		{"garbage", time.Minute, time.Minute},
		{"-10s", time.Minute, time.Minute},
		{"2h", time.Minute, 2 * time.Hour},
	}
	for _, tt := range tests {
		if got := parseDurationOr(tt.raw, tt.fallback); got != tt.expected {
			t.Fatalf("parseDurationOr(%q) = %s, expected %s", tt.raw, got, tt.expected)
		}
	}
}

// scanRoomRepo embeds the interface and overrides only what the pass under
// test touches; anything else panics loudly.
type scanRoomRepo struct {
	repository.RoomRepository
	room *models.Room
}

func (r *scanRoomRepo) DueForDetection(context.Context) ([]models.Room, error) {
	return []models.Room{*r.room}, nil
}
func (r *scanRoomRepo) StaleForming(context.Context, time.Time) ([]models.Room, error) {
	return nil, nil
}
func (r *scanRoomRepo) GetByID(_ context.Context, id uint) (*models.Room, error) {
	copied := *r.room
	return &copied, nil
}
func (r *scanRoomRepo) Mutate(_ context.Context, id uint, fn func(*models.Room) error) (*models.Room, error) {
	if err := fn(r.room); err != nil {
		return nil, err
	}
	copied := *r.room
	return &copied, nil
}

type scanProfileRepo struct {
	repository.ProfileRepository
}

func (r *scanProfileRepo) GetByIDs(_ context.Context, ids []uint) ([]models.Profile, error) {
	profiles := make([]models.Profile, 0, len(ids))
	for _, id := range ids {
		profiles = append(profiles, models.Profile{ID: id, RiotPUUID: fmt.Sprintf("puuid-%d", id)})
	}
	return profiles, nil
}

type scanMatchAPI struct {
	ids []string
}

func (a *scanMatchAPI) MatchIDsByPUUID(context.Context, string, int) ([]string, error) {
	return a.ids, nil
}
func (a *scanMatchAPI) MatchByID(context.Context, string) (*riot.Match, error) {
	return &riot.Match{}, nil
}

func TestDetectionPassPromotesAndDetects(t *testing.T) {
	copied := time.Now().Add(-5 * time.Minute)
	room := &models.Room{
		ID:         3,
		Status:     models.RoomReady,
		HostID:     1,
		Players:    models.UintList{1, 2},
		MaxPlayers: 2,
		LastCopyAt: &copied,
	}
	rooms := &scanRoomRepo{room: room}
	profiles := &scanProfileRepo{}

	roomService := service.NewRoomService(rooms, profiles)
	detection := service.NewDetectionService(&scanMatchAPI{ids: []string{"m9"}}, rooms, profiles)

	w := &Worker{
		rooms:       rooms,
		roomService: roomService,
		detection:   detection,
		stopCh:      make(chan struct{}),
	}
	w.runDetectionPass(context.Background())

	if room.Status != models.RoomPlaying {
		t.Fatalf("expected room promoted to playing, got %s", room.Status)
	}
	if room.DetectedMatchID != "m9" {
		t.Fatalf("expected match m9 detected, got %q", room.DetectedMatchID)
	}
}

func TestDetectionPassLeavesFreshCopyTimerAlone(t *testing.T) {
	copied := time.Now().Add(-time.Minute)
	room := &models.Room{
		ID:         3,
		Status:     models.RoomReady,
		HostID:     1,
		Players:    models.UintList{1, 2},
		MaxPlayers: 2,
		LastCopyAt: &copied,
	}
	rooms := &scanRoomRepo{room: room}
	profiles := &scanProfileRepo{}

	w := &Worker{
		rooms:       rooms,
		roomService: service.NewRoomService(rooms, profiles),
		detection:   service.NewDetectionService(&scanMatchAPI{ids: []string{"m9"}}, rooms, profiles),
		stopCh:      make(chan struct{}),
	}
	w.runDetectionPass(context.Background())

	if room.Status != models.RoomReady {
		t.Fatalf("expected room untouched before the copy threshold, got %s", room.Status)
	}
	if room.DetectedMatchID != "" {
		t.Fatalf("expected no detection before promotion, got %q", room.DetectedMatchID)
	}
}
