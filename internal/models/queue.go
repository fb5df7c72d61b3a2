package models

import (
	"time"
)

// QueueEntry marks a user as browsable for room invitations. At most one
// entry per user exists at a time.
type QueueEntry struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"unique;not null" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	User Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
