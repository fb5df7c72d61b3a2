package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"
	"github.com/tungtase04539/TFT-Finder/internal/observability"
	"github.com/tungtase04539/TFT-Finder/internal/repository"
)

const pendingRoomMaxIdle = 10 * time.Minute

func isFormingRoomStale(room models.Room, now time.Time) bool {
	if room.Status != models.RoomForming {
		return false
	}
	return now.Sub(room.UpdatedAt) > pendingRoomMaxIdle
}

// RoomService provides room lifecycle business logic.
type RoomService struct {
	rooms    repository.RoomRepository
	profiles repository.ProfileRepository
}

// NewRoomService returns a new RoomService.
func NewRoomService(rooms repository.RoomRepository, profiles repository.ProfileRepository) *RoomService {
	return &RoomService{rooms: rooms, profiles: profiles}
}

// CreateRoom starts a new room with the creator as sole player and sole
// agreer. The creator is first evicted from any other active room.
func (s *RoomService) CreateRoom(ctx context.Context, hostID uint, rules []string, maxPlayers int) (*models.Room, error) {
	if maxPlayers == 0 {
		maxPlayers = 8
	}
	if maxPlayers < 2 || maxPlayers > 8 {
		return nil, models.NewValidationError("max_players must be between 2 and 8")
	}
	if len(rules) == 0 {
		return nil, models.NewValidationError("At least one rule is required")
	}

	if err := s.evictFromActiveRooms(ctx, hostID, 0); err != nil {
		return nil, err
	}

	room := &models.Room{
		Status:        models.RoomForming,
		HostID:        hostID,
		Players:       models.UintList{hostID},
		PlayersAgreed: models.UintList{hostID},
		Rules:         models.StringList(rules),
		MaxPlayers:    maxPlayers,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoom fetches a room, cancelling it first if it has gone stale while
// forming.
func (s *RoomService) GetRoom(ctx context.Context, id uint) (*models.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if isFormingRoomStale(*room, time.Now()) {
		return s.cancelStaleRoom(ctx, room.ID)
	}
	return room, nil
}

// ListRooms returns rooms in the given statuses, sweeping stale forming
// rooms first so abandoned lobbies do not linger in listings.
func (s *RoomService) ListRooms(ctx context.Context, statuses []models.RoomStatus, limit, offset int) ([]models.Room, error) {
	s.SweepStaleRooms(ctx)
	return s.rooms.ListByStatus(ctx, statuses, limit, offset)
}

// SweepStaleRooms cancels forming rooms idle past the pending limit. Runs on
// every listing and on the background scan.
func (s *RoomService) SweepStaleRooms(ctx context.Context) {
	stale, err := s.rooms.StaleForming(ctx, time.Now().Add(-pendingRoomMaxIdle))
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "stale room sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, room := range stale {
		if _, err := s.cancelStaleRoom(ctx, room.ID); err != nil {
			observability.GlobalLogger.ErrorContext(ctx, "failed to auto-cancel stale room",
				slog.Uint64("room_id", uint64(room.ID)),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *RoomService) cancelStaleRoom(ctx context.Context, roomID uint) (*models.Room, error) {
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		// Re-check under the lock; someone may have joined meanwhile.
		if !isFormingRoomStale(*room, time.Now()) {
			return nil
		}
		room.Status = models.RoomCancelled
		return nil
	})
}

// JoinRoom adds the user to a forming room, evicting them from any other
// active room first.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID uint) (*models.Room, error) {
	if err := s.checkNotBanned(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.evictFromActiveRooms(ctx, userID, roomID); err != nil {
		return nil, err
	}

	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if room.Players.Contains(userID) {
			return nil
		}
		if room.Status != models.RoomForming {
			return models.NewConflictError("Room is no longer accepting players")
		}
		if len(room.Players) >= room.MaxPlayers {
			return models.NewConflictError("Room is full")
		}
		room.Players = append(room.Players, userID)
		return nil
	})
}

// LeaveRoom removes the user. A leaving host hands the room to the first
// remaining player by join order; an emptied room is cancelled.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID uint) (*models.Room, error) {
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if !room.Players.Contains(userID) {
			return models.NewForbiddenError("You are not a member of this room")
		}
		removePlayer(room, userID)
		return nil
	})
}

// removePlayer drops the user from membership and agreement, transferring
// host or cancelling as needed. Caller holds the room lock.
func removePlayer(room *models.Room, userID uint) {
	room.Players = room.Players.Without(userID)
	room.PlayersAgreed = room.PlayersAgreed.Without(userID)

	if len(room.Players) == 0 {
		room.Status = models.RoomCancelled
		return
	}
	if room.HostID == userID {
		room.HostID = room.Players[0]
	}
}

// AgreeToRules records the user's agreement. When the last seat's agreement
// lands, the room advances to ready in the same transaction.
func (s *RoomService) AgreeToRules(ctx context.Context, roomID, userID uint) (*models.Room, error) {
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if room.Status != models.RoomForming {
			return models.NewConflictError("Rules can only be agreed to while the room is forming")
		}
		if !room.Players.Contains(userID) {
			return models.NewForbiddenError("You are not a member of this room")
		}
		if room.PlayersAgreed.Contains(userID) {
			return nil
		}
		room.PlayersAgreed = append(room.PlayersAgreed, userID)

		if room.AllAgreed() {
			now := time.Now()
			room.Status = models.RoomReady
			room.StartedAt = &now
		}
		return nil
	})
}

// UpdateRules lets the host rewrite the rule list. All agreement except the
// host's own is reset and the room returns to forming.
func (s *RoomService) UpdateRules(ctx context.Context, roomID, hostID uint, rules []string) (*models.Room, error) {
	if len(rules) == 0 {
		return nil, models.NewValidationError("At least one rule is required")
	}
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if room.HostID != hostID {
			return models.NewForbiddenError("Only the host can edit rules")
		}
		if room.Status != models.RoomForming && room.Status != models.RoomEditing {
			return models.NewConflictError("Rules can only be edited while the room is forming")
		}
		room.Rules = models.StringList(rules)
		room.PlayersAgreed = models.UintList{hostID}
		room.Status = models.RoomForming
		return nil
	})
}

// UpdateMaxPlayers lets the host resize the room while forming. The floor is
// the larger of 2 and current membership; the ceiling is 8.
func (s *RoomService) UpdateMaxPlayers(ctx context.Context, roomID, hostID uint, maxPlayers int) (*models.Room, error) {
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if room.HostID != hostID {
			return models.NewForbiddenError("Only the host can change the player limit")
		}
		if room.Status != models.RoomForming {
			return models.NewConflictError("Player limit can only be changed while the room is forming")
		}
		floor := 2
		if len(room.Players) > floor {
			floor = len(room.Players)
		}
		if maxPlayers < floor || maxPlayers > 8 {
			return models.NewValidationError(fmt.Sprintf("max_players must be between %d and 8", floor))
		}
		room.MaxPlayers = maxPlayers
		return nil
	})
}

// SetLobbyCode lets the host attach the in-game lobby code while the room is
// ready.
func (s *RoomService) SetLobbyCode(ctx context.Context, roomID, hostID uint, code string) (*models.Room, error) {
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if room.HostID != hostID {
			return models.NewForbiddenError("Only the host can set the lobby code")
		}
		if room.Status != models.RoomReady {
			return models.NewConflictError("Lobby code can only be set while the room is ready")
		}
		room.LobbyCode = code
		return nil
	})
}

// RecordCopyAction stamps the room when a member copies their Riot ID for
// manual invitation. The copy timer drives detection 3 minutes later.
func (s *RoomService) RecordCopyAction(ctx context.Context, roomID, userID uint) (*models.Room, error) {
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if !room.Players.Contains(userID) {
			return models.NewForbiddenError("You are not a member of this room")
		}
		if room.Status != models.RoomReady {
			return models.NewConflictError("Copy tracking is only active while the room is ready")
		}
		now := time.Now()
		room.LastCopyAt = &now
		return nil
	})
}

// AssumePlayingAfterCopy advances a ready room to playing once the copy
// timer has run out, the signal that the lobby went into the game client.
func (s *RoomService) AssumePlayingAfterCopy(ctx context.Context, roomID uint) (*models.Room, error) {
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if !CopyTracking(*room, time.Now()).ShouldTrigger {
			return models.NewConflictError("Copy timer has not elapsed")
		}
		room.Status = models.RoomPlaying
		return nil
	})
}

// StartPlaying advances a ready room to playing on explicit host action.
func (s *RoomService) StartPlaying(ctx context.Context, roomID, hostID uint) (*models.Room, error) {
	return s.rooms.Mutate(ctx, roomID, func(room *models.Room) error {
		if room.HostID != hostID {
			return models.NewForbiddenError("Only the host can start the match")
		}
		if room.Status != models.RoomReady {
			return models.NewConflictError("Room is not ready")
		}
		room.Status = models.RoomPlaying
		return nil
	})
}

// evictFromActiveRooms enforces the one-active-room rule: joining or
// creating a room removes the user from every other active room first.
func (s *RoomService) evictFromActiveRooms(ctx context.Context, userID, exceptRoomID uint) error {
	active, err := s.rooms.ActiveRoomsForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, room := range active {
		if room.ID == exceptRoomID {
			continue
		}
		if _, err := s.LeaveRoom(ctx, room.ID, userID); err != nil {
			return err
		}
	}
	return nil
}

// checkNotBanned blocks currently sanctioned users from room actions and
// clears lapsed temporary bans on the way through.
func (s *RoomService) checkNotBanned(ctx context.Context, userID uint) error {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	if profile.BanExpired(now) {
		if err := s.profiles.UpdateFields(ctx, userID, map[string]interface{}{"banned_until": nil}); err != nil {
			observability.GlobalLogger.WarnContext(ctx, "failed to clear expired ban",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	if profile.IsBanned(now) {
		return models.NewForbiddenError("Your account is currently banned")
	}
	return nil
}
