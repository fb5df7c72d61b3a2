package models

import (
	"time"
)

const (
	// VerificationCodeTTL is how long a code stays redeemable.
	VerificationCodeTTL = 10 * time.Minute
	// VerificationMaxAttempts caps wrong guesses per code.
	VerificationMaxAttempts = 3
)

// VerificationCode is a single-use emailed code. Only the bcrypt hash is
// stored.
type VerificationCode struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"not null;index" json:"email"`
	CodeHash    string     `gorm:"not null" json:"-"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expires_at"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	MaxAttempts int        `gorm:"default:3" json:"max_attempts"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Redeemable reports whether the code can still be verified at the given
// instant.
func (v *VerificationCode) Redeemable(now time.Time) bool {
	return v.UsedAt == nil && v.Attempts < v.MaxAttempts && now.Before(v.ExpiresAt)
}
