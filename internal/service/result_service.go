package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/observability"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
)

// resultTrackDelay is how long after detection the match detail is fetched.
// A TFT game rarely exceeds 40 minutes, so an hour guarantees a finished
// match document.
const resultTrackDelay = time.Hour

// ResultService persists detected match outcomes and maintains lifetime
// stats. Recording is idempotent per (room, match) pair.
type ResultService struct {
	results   repository.MatchResultRepository
	rooms     repository.RoomRepository
	profiles  repository.ProfileRepository
	detection *DetectionService
}

// NewResultService returns a new ResultService.
func NewResultService(
	results repository.MatchResultRepository,
	rooms repository.RoomRepository,
	profiles repository.ProfileRepository,
	detection *DetectionService,
) *ResultService {
	return &ResultService{results: results, rooms: rooms, profiles: profiles, detection: detection}
}

// TrackRoomResult resolves the room's detected match and records the
// outcome. Safe to call repeatedly: stats are incremented only on the first
// successful recording.
func (s *ResultService) TrackRoomResult(ctx context.Context, roomID uint) (*models.MatchResult, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.DetectedMatchID == "" {
		return nil, models.NewValidationError("Room has no detected match")
	}
	if room.Status != models.RoomPlaying && room.Status != models.RoomCompleted {
		return nil, models.NewConflictError("Room is not in a trackable state")
	}

	players, err := s.trackedPlayers(ctx, room.Players)
	if err != nil {
		return nil, err
	}

	resolved, err := s.detection.ResolveMatch(ctx, room.DetectedMatchID, players)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, room, resolved)
}

// record persists the resolved match and, when this call is the one that
// created the row, updates stats and completes the room.
func (s *ResultService) record(ctx context.Context, room *models.Room, resolved *ResolvedMatch) (*models.MatchResult, error) {
	placements := models.PlacementMap{}
	present := make(map[uint]bool, len(resolved.Placements))
	for _, p := range resolved.Placements {
		if p.Found {
			placements[p.UserID] = p.Placement
			present[p.UserID] = true
		}
	}

	result := &models.MatchResult{
		RoomID:     room.ID,
		MatchID:    resolved.MatchID,
		WinnerID:   resolved.WinnerID,
		Placements: placements,
	}
	created, err := s.results.Insert(ctx, result)
	if err != nil {
		return nil, err
	}
	if !created {
		return s.results.GetByRoomAndMatch(ctx, room.ID, resolved.MatchID)
	}

	for _, p := range resolved.Placements {
		if !p.Found {
			continue
		}
		won := resolved.WinnerID != nil && *resolved.WinnerID == p.UserID
		if err := s.profiles.IncrementGameStats(ctx, p.UserID, won); err != nil {
			observability.GlobalLogger.ErrorContext(ctx, "failed to update game stats",
				slog.Uint64("user_id", uint64(p.UserID)),
				slog.String("error", err.Error()),
			)
		}
	}

	if _, err := s.rooms.Mutate(ctx, room.ID, func(r *models.Room) error {
		for _, playerID := range append(models.UintList{}, r.Players...) {
			if !present[playerID] {
				removePlayer(r, playerID)
			}
		}
		// A game needs at least two of the original members in the match
		// to count as this room's game.
		if len(r.Players) < 2 {
			r.Status = models.RoomCancelled
		} else {
			r.Status = models.RoomCompleted
		}
		return nil
	}); err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "failed to complete room after result",
			slog.Uint64("room_id", uint64(room.ID)),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

// ListRoomResults returns recorded results for a room, newest first.
func (s *ResultService) ListRoomResults(ctx context.Context, roomID uint) ([]models.MatchResult, error) {
	return s.results.ListByRoom(ctx, roomID)
}

// trackedPlayers maps room membership to Riot identities, skipping any
// member who somehow lost verification.
func (s *ResultService) trackedPlayers(ctx context.Context, playerIDs models.UintList) ([]TrackedPlayer, error) {
	profiles, err := s.profiles.GetByIDs(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	players := make([]TrackedPlayer, 0, len(profiles))
	for _, p := range profiles {
		if p.RiotPUUID == "" {
			continue
		}
		players = append(players, TrackedPlayer{UserID: p.ID, PUUID: p.RiotPUUID})
	}
	return players, nil
}
