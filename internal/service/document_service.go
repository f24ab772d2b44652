package service

import (
	"context"
	"strings"

	"planhub/internal/models"
	"planhub/internal/repository"
	"planhub/internal/storage"
)

// CreateDocumentInput carries the admin-supplied fields of a catalog entry.
type CreateDocumentInput struct {
	Title       string `json:"title"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	FilePath    string `json:"file_path"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// DocumentService manages the restricted document catalog.
type DocumentService struct {
	documentRepo repository.DocumentRepository
	store        storage.FileStore
}

// NewDocumentService returns a new DocumentService.
func NewDocumentService(documentRepo repository.DocumentRepository, store storage.FileStore) *DocumentService {
	return &DocumentService{documentRepo: documentRepo, store: store}
}

// Create registers a new catalog entry. The referenced file must already
// exist in storage.
func (s *DocumentService) Create(ctx context.Context, in CreateDocumentInput) (*models.Document, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Reference = strings.TrimSpace(in.Reference)
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Reference == "" {
		return nil, models.NewValidationError("Reference is required")
	}
	if in.FilePath == "" {
		return nil, models.NewValidationError("File path is required")
	}
	if in.FileName == "" {
		in.FileName = in.FilePath[strings.LastIndex(in.FilePath, "/")+1:]
	}
	if in.ContentType == "" {
		in.ContentType = "application/octet-stream"
	}

	info, err := s.store.Stat(in.FilePath)
	if err != nil {
		return nil, models.NewValidationError("File does not exist in storage")
	}

	doc := &models.Document{
		Title:       in.Title,
		Reference:   in.Reference,
		Description: in.Description,
		FilePath:    in.FilePath,
		FileName:    in.FileName,
		FileSize:    info.Size,
		ContentType: in.ContentType,
		Active:      true,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByID returns one catalog entry.
func (s *DocumentService) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	return s.documentRepo.GetByID(ctx, id)
}

// ListActive returns the requestable catalog, alphabetically by title.
func (s *DocumentService) ListActive(ctx context.Context, limit, offset int) ([]models.Document, error) {
	return s.documentRepo.ListActive(ctx, limit, offset)
}

// Archive withdraws a document from the catalog. Existing requests and
// tokens are left untouched; redemption policy for archived documents is
// decided at download time.
func (s *DocumentService) Archive(ctx context.Context, id uint) error {
	return s.documentRepo.SetActive(ctx, id, false)
}

// Restore returns an archived document to the catalog.
func (s *DocumentService) Restore(ctx context.Context, id uint) error {
	return s.documentRepo.SetActive(ctx, id, true)
}
