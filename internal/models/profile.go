// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile represents a registered player bound to one Riot account.
type Profile struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Password string `json:"-"`

	// Riot identity, immutable once verified.
	RiotID        string `gorm:"uniqueIndex:idx_profiles_riot_id,where:riot_id <> ''" json:"riot_id"`
	RiotPUUID     string `json:"-"`
	SummonerID    string `json:"-"`
	ProfileIconID int    `json:"profile_icon_id"`
	IsVerified    bool   `gorm:"default:false" json:"is_verified"`

	// Ranked standing, refreshed from the league API at most once per day.
	RankTier      string     `json:"rank_tier"`
	RankDivision  string     `json:"rank_division"`
	LeaguePoints  int        `json:"league_points"`
	Wins          int        `json:"wins"`
	Losses        int        `json:"losses"`
	RankUpdatedAt *time.Time `json:"rank_updated_at,omitempty"`

	// Lifetime custom-game stats maintained by the result tracker.
	GamesPlayed int `gorm:"default:0" json:"games_played"`
	GamesWon    int `gorm:"default:0" json:"games_won"`

	// Sanction state. BannedUntil nil with BanCount >= 2 means permanent.
	BanCount    int        `gorm:"default:0" json:"ban_count"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`

	IsAdmin   bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsBanned reports whether the profile is currently sanctioned at the given
// instant. A nil BannedUntil with BanCount >= 2 is a permanent ban.
func (p *Profile) IsBanned(now time.Time) bool {
	if p.BanCount >= 2 && p.BannedUntil == nil {
		return true
	}
	return p.BannedUntil != nil && p.BannedUntil.After(now)
}

// BanExpired reports whether a temporary ban has lapsed and should be cleared.
func (p *Profile) BanExpired(now time.Time) bool {
	return p.BannedUntil != nil && !p.BannedUntil.After(now)
}
