package models

import (
	"time"
)

// BanType defines the class of sanction
type BanType string

const (
	// BanTemporary expires 24 hours after issue
	BanTemporary BanType = "temporary"
	// BanPermanent never expires and blacklists the Riot identity
	BanPermanent BanType = "permanent"
)

// TemporaryBanDuration is how long a first-offense ban lasts.
const TemporaryBanDuration = 24 * time.Hour

// Ban is a sanction record issued against a profile.
type Ban struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	ReportID  *uint      `json:"report_id,omitempty"`
	Type      BanType    `gorm:"not null" json:"type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    string     `json:"reason"`
	IssuedBy  uint       `gorm:"not null" json:"issued_by"`
	CreatedAt time.Time  `json:"created_at"`

	User Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BannedRiotID blacklists a Riot identity permanently, independent of any
// profile row, so a fresh account cannot re-verify the same identity.
type BannedRiotID struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RiotID    string    `gorm:"unique;not null" json:"riot_id"`
	UserID    uint      `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
