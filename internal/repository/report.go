package repository

import (
	"context"
	"errors"

	"github.com/tungtase04539/TFT-Finder/internal/models"

	"gorm.io/gorm"
)

// ReportFilter narrows admin report listings.
type ReportFilter struct {
	Status    models.ReportStatus
	AccusedID uint
	Limit     int
	Offset    int
}

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]models.Report, error)
	Resolve(ctx context.Context, id uint, fields map[string]interface{}) error
	CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error)
	CountApprovedByAccused(ctx context.Context, accusedID uint) (int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	err := readDB(r.db).WithContext(ctx).
		Preload("Reporter").
		Preload("Accused").
		Preload("Room").
		First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	var reports []models.Report
	q := readDB(r.db).WithContext(ctx).
		Preload("Reporter").
		Preload("Accused").
		Order("created_at DESC")

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AccusedID != 0 {
		q = q.Where("accused_id = ?", filter.AccusedID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	if err := q.Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

func (r *reportRepository) Resolve(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ? AND status = ?", id, models.ReportPending).
		Updates(fields)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewConflictError("Report already resolved")
	}
	return nil
}

func (r *reportRepository) CountByStatus(ctx context.Context, status models.ReportStatus) (int64, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Report{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *reportRepository) CountApprovedByAccused(ctx context.Context, accusedID uint) (int64, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Report{}).
		Where("accused_id = ? AND status = ?", accusedID, models.ReportApproved).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
