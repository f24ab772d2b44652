// Package seed provides database seeding utilities for development and demos.
package seed

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"planhub/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	NumRequests int
	// ShouldClean truncates portal tables before seeding.
	ShouldClean bool
	// StorageRoot is where placeholder document files are written. Empty
	// skips file creation, leaving catalog entries without backing files.
	StorageRoot string
	// DownloadWindow applied to tokens minted for approved requests.
	DownloadWindow time.Duration
	// RequestWindow applied to approved requests; outlives their tokens.
	RequestWindow time.Duration
}

// Run populates the database with a demo catalog, citizen accounts and a
// spread of requests in every lifecycle state.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumRequests <= 0 {
		opts.NumRequests = 40
	}
	if opts.DownloadWindow <= 0 {
		opts.DownloadWindow = 2 * time.Hour
	}
	if opts.RequestWindow < opts.DownloadWindow {
		opts.RequestWindow = 72 * time.Hour
	}

	if opts.ShouldClean {
		if err := Clean(db); err != nil {
			return err
		}
	}

	factory, err := NewFactory(db)
	if err != nil {
		return err
	}

	admin, err := factory.CreateAdmin("reviewer", "reviewer@planhub.local")
	if err != nil {
		return err
	}
	log.Printf("created admin %q (password %q)", admin.Email, DefaultPassword)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 1; i <= opts.NumUsers; i++ {
		user, err := factory.CreateUser(i)
		if err != nil {
			return err
		}
		users = append(users, user)
	}
	log.Printf("created %d citizen accounts", len(users))

	documents, err := seedDocuments(db, opts.StorageRoot)
	if err != nil {
		return err
	}
	log.Printf("created %d catalog documents", len(documents))

	created, err := seedRequests(factory, users, documents, admin, opts)
	if err != nil {
		return err
	}
	log.Printf("created %d requests", created)

	return nil
}

// Clean removes all portal data. Order respects foreign keys.
func Clean(db *gorm.DB) error {
	tables := []string{
		"download_access_logs",
		"download_tokens",
		"document_requests",
		"documents",
		"users",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clean %s: %w", table, err)
		}
	}
	return nil
}

func seedDocuments(db *gorm.DB, storageRoot string) ([]models.Document, error) {
	fixtures, err := LoadDocumentFixtures()
	if err != nil {
		return nil, err
	}

	documents := make([]models.Document, 0, len(fixtures))
	for _, fx := range fixtures {
		content := []byte("Placeholder content for " + fx.Reference + "\n")
		if storageRoot != "" {
			path := filepath.Join(storageRoot, filepath.FromSlash(fx.FilePath))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create fixture dir: %w", err)
			}
			if err := os.WriteFile(path, content, 0o644); err != nil {
				return nil, fmt.Errorf("write fixture file: %w", err)
			}
		}

		document := models.Document{
			Title:       fx.Title,
			Reference:   fx.Reference,
			Description: fx.Description,
			FilePath:    fx.FilePath,
			FileName:    filepath.Base(fx.FilePath),
			FileSize:    int64(len(content)),
			ContentType: fx.ContentType,
			Active:      true,
		}
		if err := db.Create(&document).Error; err != nil {
			return nil, fmt.Errorf("create document %s: %w", fx.Reference, err)
		}
		documents = append(documents, document)
	}
	return documents, nil
}

// seedRequests spreads requests across users, documents and statuses while
// respecting the one-open-request-per-pair rule.
func seedRequests(factory *Factory, users []*models.User, documents []models.Document, admin *models.User, opts Options) (int, error) {
	statuses := []models.RequestStatus{
		models.RequestStatusPending,
		models.RequestStatusPending,
		models.RequestStatusApproved,
		models.RequestStatusApproved,
		models.RequestStatusRejected,
		models.RequestStatusCancelled,
	}

	type pair struct{ user, doc uint }
	open := map[pair]bool{}

	created := 0
	for attempts := 0; created < opts.NumRequests && attempts < opts.NumRequests*20; attempts++ {
		user := users[factory.rng.Intn(len(users))]
		document := documents[factory.rng.Intn(len(documents))]
		status := statuses[factory.rng.Intn(len(statuses))]

		key := pair{user.ID, document.ID}
		if open[key] {
			continue
		}
		if status == models.RequestStatusPending || status == models.RequestStatusApproved {
			open[key] = true
		}

		if _, err := factory.CreateRequest(user, &document, admin, status, opts.DownloadWindow, opts.RequestWindow); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
