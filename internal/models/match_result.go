package models

import (
	"time"
)

// MatchResult is the finalized outcome snapshot for a room's detected match.
// The (RoomID, MatchID) pair is unique so result tracking can be re-run
// without double counting.
type MatchResult struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	RoomID     uint         `gorm:"not null;uniqueIndex:idx_match_results_room_match" json:"room_id"`
	MatchID    string       `gorm:"not null;uniqueIndex:idx_match_results_room_match" json:"match_id"`
	WinnerID   *uint        `json:"winner_id,omitempty"`
	Placements PlacementMap `gorm:"type:jsonb;not null;default:'{}'" json:"placements"`
	CreatedAt  time.Time    `json:"created_at"`

	Room   Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Winner *Profile `gorm:"foreignKey:WinnerID" json:"winner,omitempty"`
}
