package repository

import (
	"context"
	"errors"

	"planhub/internal/cache"
	"planhub/internal/models"

	"gorm.io/gorm"
)

// DocumentRepository defines persistence operations for catalog documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id uint) (*models.Document, error)
	GetByReference(ctx context.Context, reference string) (*models.Document, error)
	ListActive(ctx context.Context, limit, offset int) ([]models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository returns a new DocumentRepository implementation.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("document reference already exists")
		}
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.DocumentListKey)
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	key := cache.DocumentKey(id)

	err := cache.Aside(ctx, key, &doc, cache.DocumentTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Document", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) GetByReference(ctx context.Context, reference string) (*models.Document, error) {
	var doc models.Document
	if err := readDB(r.db).WithContext(ctx).
		Where("reference = ?", reference).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Document", reference)
		}
		return nil, models.NewInternalError(err)
	}
	return &doc, nil
}

func (r *documentRepository) ListActive(ctx context.Context, limit, offset int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var docs []models.Document
	if err := readDB(r.db).WithContext(ctx).
		Where("active = ?", true).
		Order("title ASC").
		Limit(limit).
		Offset(offset).
		Find(&docs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return docs, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Save(doc).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateDocument(ctx, doc.ID)
	return nil
}

func (r *documentRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Document", id)
	}
	cache.InvalidateDocument(ctx, id)
	return nil
}
