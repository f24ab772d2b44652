package repository

import (
	"context"
	"errors"
	"time"

	"planhub/internal/models"

	"gorm.io/gorm"
)

// RequestRepository defines persistence operations for document requests.
type RequestRepository interface {
	Create(ctx context.Context, request *models.DocumentRequest) error
	GetByID(ctx context.Context, id uint) (*models.DocumentRequest, error)
	GetByIDWithRelations(ctx context.Context, id uint) (*models.DocumentRequest, error)
	ListByRequester(ctx context.Context, requesterID uint, limit, offset int) ([]models.DocumentRequest, error)
	ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.DocumentRequest, error)
	HasOpenForRequesterAndDocument(ctx context.Context, requesterID, documentID uint) (bool, error)
	UpdateIfStatus(ctx context.Context, id uint, from models.RequestStatus, updates map[string]interface{}) (bool, error)
	ApproveWithToken(ctx context.Context, id uint, reviewerID uint, reviewNotes string, requestExpiresAt, tokenExpiresAt time.Time, tokenValue string) (*models.DownloadToken, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *models.DocumentRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("an open request for this document already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.DocumentRequest, error) {
	var request models.DocumentRequest
	if err := readDB(r.db).WithContext(ctx).First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *requestRepository) GetByIDWithRelations(ctx context.Context, id uint) (*models.DocumentRequest, error) {
	var request models.DocumentRequest
	if err := readDB(r.db).WithContext(ctx).
		Preload("Requester").
		Preload("Document").
		Preload("ReviewedBy").
		Preload("Tokens", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID uint, limit, offset int) ([]models.DocumentRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var requests []models.DocumentRequest
	if err := readDB(r.db).WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Preload("Document").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *requestRepository) ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.DocumentRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var requests []models.DocumentRequest
	if err := readDB(r.db).WithContext(ctx).
		Where("status = ?", status).
		Preload("Requester").
		Preload("Document").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *requestRepository) HasOpenForRequesterAndDocument(ctx context.Context, requesterID, documentID uint) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.DocumentRequest{}).
		Where("requester_id = ? AND document_id = ? AND status IN ?",
			requesterID, documentID,
			[]models.RequestStatus{models.RequestStatusPending, models.RequestStatusApproved}).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// UpdateIfStatus applies updates only when the request is currently in the
// given status. Returns false when the guard did not match, which callers
// treat as a lost race or an illegal transition.
func (r *requestRepository) UpdateIfStatus(ctx context.Context, id uint, from models.RequestStatus, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DocumentRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ApproveWithToken transitions a pending request to approved and mints its
// download token inside a single transaction. The status guard makes the
// approval safe against concurrent reviewers without row locks.
func (r *requestRepository) ApproveWithToken(ctx context.Context, id uint, reviewerID uint, reviewNotes string, requestExpiresAt, tokenExpiresAt time.Time, tokenValue string) (*models.DownloadToken, error) {
	var issued *models.DownloadToken

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.DocumentRequest{}).
			Where("id = ? AND status = ?", id, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":         models.RequestStatusApproved,
				"review_notes":   reviewNotes,
				"reviewed_by_id": reviewerID,
				"processed_at":   now,
				"expires_at":     requestExpiresAt,
			})
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			var existing models.DocumentRequest
			if err := tx.First(&existing, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewNotFoundError("Request", id)
				}
				return models.NewInternalError(err)
			}
			return models.NewConflictError("request is not pending")
		}

		token := &models.DownloadToken{
			Token:     tokenValue,
			RequestID: id,
			ExpiresAt: tokenExpiresAt,
		}
		if err := tx.Create(token).Error; err != nil {
			return models.NewInternalError(err)
		}
		issued = token
		return nil
	})

	if err != nil {
		return nil, err
	}
	return issued, nil
}
