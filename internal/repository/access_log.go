package repository

import (
	"context"

	"planhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessLogRepository records download attempts. The log is append-only.
type AccessLogRepository interface {
	Create(ctx context.Context, entry *models.DownloadAccessLog) error
	ListByRequest(ctx context.Context, requestID uint, limit, offset int) ([]models.DownloadAccessLog, error)
}

type accessLogRepository struct {
	db *gorm.DB
}

// NewAccessLogRepository returns a new AccessLogRepository implementation.
func NewAccessLogRepository(db *gorm.DB) AccessLogRepository {
	return &accessLogRepository{db: db}
}

func (r *accessLogRepository) Create(ctx context.Context, entry *models.DownloadAccessLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *accessLogRepository) ListByRequest(ctx context.Context, requestID uint, limit, offset int) ([]models.DownloadAccessLog, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	var entries []models.DownloadAccessLog
	if err := readDB(r.db).WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
