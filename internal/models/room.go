package models

import (
	"time"

	"gorm.io/gorm"
)

// RoomStatus defines the current state of a room
type RoomStatus string

const (
	// RoomForming indicates the room is accepting joins and rule agreements
	RoomForming RoomStatus = "forming"
	// RoomEditing indicates the host is rewriting the rule list
	RoomEditing RoomStatus = "editing"
	// RoomReady indicates everyone agreed and the lobby is being assembled
	RoomReady RoomStatus = "ready"
	// RoomPlaying indicates a match is assumed or confirmed in progress
	RoomPlaying RoomStatus = "playing"
	// RoomCompleted indicates the detected match finished and results were recorded
	RoomCompleted RoomStatus = "completed"
	// RoomCancelled indicates the room was abandoned
	RoomCancelled RoomStatus = "cancelled"
)

// ActiveRoomStatuses are the statuses in which a user counts as a member of
// the room. A user may hold membership in at most one room across these.
var ActiveRoomStatuses = []RoomStatus{RoomForming, RoomEditing, RoomReady, RoomPlaying}

// Room represents a forming or active 8-player custom game.
type Room struct {
	ID     uint       `gorm:"primaryKey" json:"id"`
	Status RoomStatus `gorm:"default:'forming';index" json:"status"`
	HostID uint       `gorm:"not null" json:"host_id"`

	// Players is the ordered join list; PlayersAgreed is always a subset of it.
	Players       UintList   `gorm:"type:jsonb;not null;default:'[]'" json:"players"`
	PlayersAgreed UintList   `gorm:"type:jsonb;not null;default:'[]'" json:"players_agreed"`
	Rules         StringList `gorm:"type:jsonb;not null;default:'[]'" json:"rules"`
	MaxPlayers    int        `gorm:"default:8" json:"max_players"`
	LobbyCode     string     `json:"lobby_code"`

	// LastCopyAt is set whenever a member copies their Riot ID for invites.
	// It drives the 3-minute detection trigger while the room is ready.
	LastCopyAt *time.Time `json:"last_copy_at,omitempty"`

	// Match detection bookkeeping.
	LastCheckedMatchID string     `json:"-"`
	DetectedMatchID    string     `json:"detected_match_id,omitempty"`
	DetectedAt         *time.Time `json:"detected_at,omitempty"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	Version   int        `gorm:"default:0" json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Host Profile `gorm:"foreignKey:HostID" json:"host,omitempty"`
}

// IsActive reports whether the room still counts toward the one-active-room
// rule for its members.
func (r *Room) IsActive() bool {
	switch r.Status {
	case RoomForming, RoomEditing, RoomReady, RoomPlaying:
		return true
	}
	return false
}

// AllAgreed reports whether every seat is filled and every member has agreed,
// the condition for the automatic forming -> ready transition.
func (r *Room) AllAgreed() bool {
	return len(r.Players) == r.MaxPlayers && len(r.PlayersAgreed) == len(r.Players)
}
