package repository

import (
	"context"
	"errors"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"gorm.io/gorm"
)

// QueueRepository defines persistence operations for the matchmaking queue.
type QueueRepository interface {
	Join(ctx context.Context, entry *models.QueueEntry) error
	Leave(ctx context.Context, userID uint) error
	GetByUser(ctx context.Context, userID uint) (*models.QueueEntry, error)
	List(ctx context.Context, limit, offset int) ([]models.QueueEntry, error)
}

type queueRepository struct {
	db *gorm.DB
}

// NewQueueRepository returns a new QueueRepository implementation.
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) Join(ctx context.Context, entry *models.QueueEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Already in queue")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *queueRepository) Leave(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.QueueEntry{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *queueRepository) GetByUser(ctx context.Context, userID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

func (r *queueRepository) List(ctx context.Context, limit, offset int) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Order("joined_at ASC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
