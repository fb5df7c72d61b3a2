package models

import (
	"time"
)

// MaxRoomMessageLength caps a single chat message.
const MaxRoomMessageLength = 500

// RoomMessage is a chat message scoped to one room.
type RoomMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;index" json:"room_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`

	User Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
