package repository

import (
	"context"
	"errors"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchResultRepository defines persistence operations for finalized match
// results.
type MatchResultRepository interface {
	// Insert stores the result unless one already exists for the same
	// (room, match) pair. It reports whether a row was created, which is
	// what gates the one-time stats increment.
	Insert(ctx context.Context, result *models.MatchResult) (bool, error)
	GetByRoomAndMatch(ctx context.Context, roomID uint, matchID string) (*models.MatchResult, error)
	ListByRoom(ctx context.Context, roomID uint) ([]models.MatchResult, error)
}

type matchResultRepository struct {
	db *gorm.DB
}

// NewMatchResultRepository returns a new MatchResultRepository implementation.
func NewMatchResultRepository(db *gorm.DB) MatchResultRepository {
	return &matchResultRepository{db: db}
}

func (r *matchResultRepository) Insert(ctx context.Context, result *models.MatchResult) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_id"}, {Name: "match_id"}},
			DoNothing: true,
		}).
		Create(result)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *matchResultRepository) GetByRoomAndMatch(ctx context.Context, roomID uint, matchID string) (*models.MatchResult, error) {
	var result models.MatchResult
	err := readDB(r.db).WithContext(ctx).
		Where("room_id = ? AND match_id = ?", roomID, matchID).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &result, nil
}

func (r *matchResultRepository) ListByRoom(ctx context.Context, roomID uint) ([]models.MatchResult, error) {
	var results []models.MatchResult
	err := readDB(r.db).WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return results, nil
}
