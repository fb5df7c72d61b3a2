package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/cache"
	"github.com/tungtase04539/TFT-Finder/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomRepository defines persistence operations for rooms.
type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	GetByID(ctx context.Context, id uint) (*models.Room, error)
	ListByStatus(ctx context.Context, statuses []models.RoomStatus, limit, offset int) ([]models.Room, error)
	ActiveRoomsForUser(ctx context.Context, userID uint) ([]models.Room, error)
	Mutate(ctx context.Context, id uint, fn func(room *models.Room) error) (*models.Room, error)
	StaleForming(ctx context.Context, idleSince time.Time) ([]models.Room, error)
	DueForDetection(ctx context.Context) ([]models.Room, error)
	DueForResults(ctx context.Context, detectedBefore time.Time) ([]models.Room, error)
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository returns a new RoomRepository implementation.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	key := cache.RoomKey(id)

	err := cache.Aside(ctx, key, &room, cache.RoomTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Preload("Host").First(&room, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Room", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) ListByStatus(ctx context.Context, statuses []models.RoomStatus, limit, offset int) ([]models.Room, error) {
	var rooms []models.Room
	q := readDB(r.db).WithContext(ctx).Preload("Host").Order("created_at DESC").Limit(limit).Offset(offset)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Find(&rooms).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

// ActiveRoomsForUser returns the active rooms this user is a member of.
// Membership lives in the players JSONB array.
func (r *roomRepository) ActiveRoomsForUser(ctx context.Context, userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := readDB(r.db).WithContext(ctx).
		Where("status IN ?", models.ActiveRoomStatuses).
		Where("players @> ?", models.UintList{userID}).
		Find(&rooms).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

// Mutate applies fn to the room inside a transaction holding a row lock, so
// concurrent membership and agreement updates cannot clobber each other. The
// version column is bumped on every successful mutation.
func (r *roomRepository) Mutate(ctx context.Context, id uint, fn func(room *models.Room) error) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Room", id)
			}
			return models.NewInternalError(err)
		}

		if err := fn(&room); err != nil {
			return err
		}

		room.Version++
		if err := tx.Save(&room).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateRoom(ctx, id)
	return &room, nil
}

// StaleForming returns forming rooms with no update since the cutoff. They
// are candidates for automatic cancellation.
func (r *roomRepository) StaleForming(ctx context.Context, idleSince time.Time) ([]models.Room, error) {
	var rooms []models.Room
	err := readDB(r.db).WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.RoomForming, idleSince).
		Find(&rooms).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

// DueForDetection returns rooms the detection worker should poll this tick.
func (r *roomRepository) DueForDetection(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	err := readDB(r.db).WithContext(ctx).
		Where("status IN ?", []models.RoomStatus{models.RoomReady, models.RoomPlaying}).
		Find(&rooms).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

// DueForResults returns playing rooms whose detected match is old enough for
// final result tracking.
func (r *roomRepository) DueForResults(ctx context.Context, detectedBefore time.Time) ([]models.Room, error) {
	var rooms []models.Room
	err := readDB(r.db).WithContext(ctx).
		Where("status = ?", models.RoomPlaying).
		Where("detected_match_id <> ''").
		Where("detected_at IS NOT NULL AND detected_at < ?", detectedBefore).
		Find(&rooms).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rooms, nil
}

func (r *roomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Room{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *roomRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Room{}).
		Where("status IN ?", models.ActiveRoomStatuses).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
