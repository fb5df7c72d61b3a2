package repository

import (
	"context"

	"github.com/tungtase04539/TFT-Finder/internal/cache"
	"github.com/tungtase04539/TFT-Finder/internal/models"

	"gorm.io/gorm"
)

// RoomMessageRepository defines persistence operations for room chat.
type RoomMessageRepository interface {
	Create(ctx context.Context, message *models.RoomMessage) error
	ListByRoom(ctx context.Context, roomID uint, limit int) ([]models.RoomMessage, error)
}

type roomMessageRepository struct {
	db *gorm.DB
}

// NewRoomMessageRepository returns a new RoomMessageRepository implementation.
func NewRoomMessageRepository(db *gorm.DB) RoomMessageRepository {
	return &roomMessageRepository{db: db}
}

func (r *roomMessageRepository) Create(ctx context.Context, message *models.RoomMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.MessageHistoryKey(message.RoomID))
	return nil
}

// ListByRoom returns the most recent messages in chronological order. The
// history is cached briefly since room pages re-fetch on every event.
func (r *roomMessageRepository) ListByRoom(ctx context.Context, roomID uint, limit int) ([]models.RoomMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var messages []models.RoomMessage
	key := cache.MessageHistoryKey(roomID)

	err := cache.Aside(ctx, key, &messages, cache.MessageHistoryTTL, func() error {
		err := readDB(r.db).WithContext(ctx).
			Preload("User").
			Where("room_id = ?", roomID).
			Order("created_at DESC").
			Limit(limit).
			Find(&messages).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		// Reverse to chronological order for display.
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return messages, nil
}
