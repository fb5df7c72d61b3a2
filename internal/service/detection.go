package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/observability"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
	"github.com/tungtase04539/TFT-Finder/internal/riot"
)

const (
	// copyDetectThreshold is how long after the last Riot ID copy the lobby
	// is assumed to have launched into a match.
	copyDetectThreshold = 3 * time.Minute

	// recentMatchWindow is how many recent match IDs are fetched per player
	// when looking for a common match.
	recentMatchWindow = 3
)

// CopyTrackingState is the derived state of the invite copy timer for a
// ready room.
type CopyTrackingState struct {
	LastCopyAt    *time.Time
	Elapsed       time.Duration
	ShouldTrigger bool
	TimeUntil     time.Duration
}

// CopyTracking derives the copy timer state for a room at the given instant.
// It never triggers unless a copy has happened and the room is ready; with no
// copy recorded the remaining time reports the full threshold.
func CopyTracking(room models.Room, now time.Time) CopyTrackingState {
	state := CopyTrackingState{
		LastCopyAt: room.LastCopyAt,
		TimeUntil:  copyDetectThreshold,
	}
	if room.LastCopyAt == nil {
		return state
	}

	state.Elapsed = now.Sub(*room.LastCopyAt)
	remaining := copyDetectThreshold - state.Elapsed
	if remaining < 0 {
		remaining = 0
	}
	state.TimeUntil = remaining
	state.ShouldTrigger = room.Status == models.RoomReady && state.Elapsed >= copyDetectThreshold
	return state
}

// commonMatches returns the match IDs present in every player's list, in the
// order of the first player's list (newest first). Any empty list empties the
// intersection.
func commonMatches(lists [][]string) []string {
	if len(lists) == 0 {
		return nil
	}

	common := make([]string, 0, len(lists[0]))
	for _, id := range lists[0] {
		inAll := true
		for _, other := range lists[1:] {
			found := false
			for _, otherID := range other {
				if otherID == id {
					found = true
					break
				}
			}
			if !found {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, id)
		}
	}
	return common
}

// MatchAPI is the slice of the Riot client the detection service needs.
type MatchAPI interface {
	MatchIDsByPUUID(ctx context.Context, puuid string, count int) ([]string, error)
	MatchByID(ctx context.Context, matchID string) (*riot.Match, error)
}

// MatchStartResult reports whether a new common match appeared.
type MatchStartResult struct {
	Started bool   `json:"started"`
	MatchID string `json:"match_id,omitempty"`
}

// TrackedPlayer binds an internal user to the Riot identity detection tracks.
type TrackedPlayer struct {
	UserID uint
	PUUID  string
}

// PlayerPlacement is a tracked player's final showing in a resolved match.
// Found is false for no-shows absent from the match's participant list.
type PlayerPlacement struct {
	UserID    uint `json:"user_id"`
	Placement int  `json:"placement"`
	Level     int  `json:"level"`
	Found     bool `json:"found"`
}

// ResolvedMatch is the outcome of a detected match after the detail fetch.
type ResolvedMatch struct {
	MatchID    string            `json:"match_id"`
	WinnerID   *uint             `json:"winner_id,omitempty"`
	Placements []PlayerPlacement `json:"placements"`
}

// DetectionService discovers new matches common to a set of players.
type DetectionService struct {
	api      MatchAPI
	rooms    repository.RoomRepository
	profiles repository.ProfileRepository
}

// NewDetectionService returns a new DetectionService.
func NewDetectionService(api MatchAPI, rooms repository.RoomRepository, profiles repository.ProfileRepository) *DetectionService {
	return &DetectionService{api: api, rooms: rooms, profiles: profiles}
}

// CheckMatchStarted fetches each player's recent match IDs and reports
// whether a common match newer than lastSeen exists. A failed fetch for one
// player degrades to an empty list for that player rather than aborting.
func (s *DetectionService) CheckMatchStarted(ctx context.Context, puuids []string, lastSeen string) (*MatchStartResult, error) {
	if len(puuids) < 2 {
		return nil, models.NewValidationError("At least two players are required for match detection")
	}

	lists := make([][]string, 0, len(puuids))
	for _, puuid := range puuids {
		ids, err := s.api.MatchIDsByPUUID(ctx, puuid, recentMatchWindow)
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "match id fetch failed, treating as empty",
				slog.String("puuid", puuid),
				slog.String("error", err.Error()),
			)
			ids = nil
		}
		lists = append(lists, ids)
	}

	common := commonMatches(lists)
	if len(common) == 0 {
		observability.DetectionTicks.WithLabelValues("no_common_match").Inc()
		return &MatchStartResult{Started: false}, nil
	}

	// Lists are newest first, so the first common entry is the most recent.
	newest := common[0]
	if newest == lastSeen {
		observability.DetectionTicks.WithLabelValues("unchanged").Inc()
		return &MatchStartResult{Started: false, MatchID: newest}, nil
	}

	observability.DetectionTicks.WithLabelValues("started").Inc()
	return &MatchStartResult{Started: true, MatchID: newest}, nil
}

// CheckRoom runs match detection for one room and, when a fresh common
// match shows up, records it and advances the room to playing.
func (s *DetectionService) CheckRoom(ctx context.Context, roomID uint) (*MatchStartResult, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomReady && room.Status != models.RoomPlaying {
		return nil, models.NewConflictError("Room is not in a detectable state")
	}

	profiles, err := s.profiles.GetByIDs(ctx, room.Players)
	if err != nil {
		return nil, err
	}
	puuids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p.RiotPUUID != "" {
			puuids = append(puuids, p.RiotPUUID)
		}
	}

	result, err := s.CheckMatchStarted(ctx, puuids, room.LastCheckedMatchID)
	if err != nil {
		return nil, err
	}
	if !result.Started {
		return result, nil
	}

	_, err = s.rooms.Mutate(ctx, roomID, func(r *models.Room) error {
		if r.Status != models.RoomReady && r.Status != models.RoomPlaying {
			return models.NewConflictError("Room is not in a detectable state")
		}
		now := time.Now()
		r.Status = models.RoomPlaying
		r.DetectedMatchID = result.MatchID
		r.LastCheckedMatchID = result.MatchID
		if r.DetectedAt == nil {
			r.DetectedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResolveMatch fetches the full detail for a detected match and extracts
// placements for the tracked players. Detail fetch errors propagate.
func (s *DetectionService) ResolveMatch(ctx context.Context, matchID string, players []TrackedPlayer) (*ResolvedMatch, error) {
	match, err := s.api.MatchByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, riot.ErrRateLimited) {
			return nil, models.NewRateLimitError("Riot API rate limit reached")
		}
		return nil, models.NewInternalError(err)
	}

	resolved := &ResolvedMatch{
		MatchID:    matchID,
		Placements: make([]PlayerPlacement, 0, len(players)),
	}

	for _, player := range players {
		placement := PlayerPlacement{UserID: player.UserID}
		if participant, ok := match.ParticipantByPUUID(player.PUUID); ok {
			placement.Found = true
			placement.Placement = participant.Placement
			placement.Level = participant.Level
			if participant.Placement == 1 {
				id := player.UserID
				resolved.WinnerID = &id
			}
		}
		resolved.Placements = append(resolved.Placements, placement)
	}

	return resolved, nil
}
