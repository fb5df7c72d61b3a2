package repository

import (
	"context"
	"errors"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BanRepository defines persistence operations for bans and the Riot ID
// blacklist.
type BanRepository interface {
	Create(ctx context.Context, ban *models.Ban) error
	GetByID(ctx context.Context, id uint) (*models.Ban, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Ban, error)
	List(ctx context.Context, limit, offset int) ([]models.Ban, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	BlacklistRiotID(ctx context.Context, riotID string, userID uint) error
	IsRiotIDBanned(ctx context.Context, riotID string) (bool, error)
}

type banRepository struct {
	db *gorm.DB
}

// NewBanRepository returns a new BanRepository implementation.
func NewBanRepository(db *gorm.DB) BanRepository {
	return &banRepository{db: db}
}

func (r *banRepository) Create(ctx context.Context, ban *models.Ban) error {
	if err := r.db.WithContext(ctx).Create(ban).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *banRepository) GetByID(ctx context.Context, id uint) (*models.Ban, error) {
	var ban models.Ban
	if err := readDB(r.db).WithContext(ctx).Preload("User").First(&ban, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Ban", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &ban, nil
}

func (r *banRepository) ListByUser(ctx context.Context, userID uint) ([]models.Ban, error) {
	var bans []models.Ban
	if err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&bans).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return bans, nil
}

func (r *banRepository) List(ctx context.Context, limit, offset int) ([]models.Ban, error) {
	var bans []models.Ban
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&bans).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return bans, nil
}

func (r *banRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Ban{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *banRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Ban{}).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// BlacklistRiotID records a Riot identity permanently. Re-blacklisting the
// same identity is a no-op.
func (r *banRepository) BlacklistRiotID(ctx context.Context, riotID string, userID uint) error {
	entry := models.BannedRiotID{RiotID: riotID, UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "riot_id"}}, DoNothing: true}).
		Create(&entry).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *banRepository) IsRiotIDBanned(ctx context.Context, riotID string) (bool, error) {
	if riotID == "" {
		return false, nil
	}
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.BannedRiotID{}).Where("riot_id = ?", riotID).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
