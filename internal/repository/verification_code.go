package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"gorm.io/gorm"
)

// VerificationCodeRepository defines persistence operations for emailed
// verification codes.
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *models.VerificationCode) error
	LatestByEmail(ctx context.Context, email string) (*models.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id uint) error
	MarkUsed(ctx context.Context, id uint, usedAt time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type verificationCodeRepository struct {
	db *gorm.DB
}

// NewVerificationCodeRepository returns a new VerificationCodeRepository implementation.
func NewVerificationCodeRepository(db *gorm.DB) VerificationCodeRepository {
	return &verificationCodeRepository{db: db}
}

func (r *verificationCodeRepository) Create(ctx context.Context, code *models.VerificationCode) error {
	if err := r.db.WithContext(ctx).Create(code).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *verificationCodeRepository) LatestByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	var code models.VerificationCode
	err := readDB(r.db).WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &code, nil
}

func (r *verificationCodeRepository) IncrementAttempts(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *verificationCodeRepository) MarkUsed(ctx context.Context, id uint, usedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.VerificationCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", usedAt).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *verificationCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.VerificationCode{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
