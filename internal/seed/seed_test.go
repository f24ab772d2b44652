package seed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"planhub/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.DocumentRequest{},
		&models.DownloadToken{},
		&models.DownloadAccessLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestLoadDocumentFixtures(t *testing.T) {
	fixtures, err := LoadDocumentFixtures()
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	if len(fixtures) < 5 {
		t.Fatalf("expected at least 5 fixtures, got %d", len(fixtures))
	}
	seen := map[string]bool{}
	for _, fx := range fixtures {
		if fx.Title == "" || fx.Reference == "" || fx.FilePath == "" || fx.ContentType == "" {
			t.Fatalf("incomplete fixture: %+v", fx)
		}
		if seen[fx.Reference] {
			t.Fatalf("duplicate reference %s", fx.Reference)
		}
		seen[fx.Reference] = true
	}
}

func TestRunSeedsConsistentData(t *testing.T) {
	db := newSeedDB(t)
	dir := t.TempDir()

	err := Run(db, Options{
		NumUsers:       5,
		NumRequests:    12,
		StorageRoot:    dir,
		DownloadWindow: time.Hour,
	})
	if err != nil {
		t.Fatalf("seed run: %v", err)
	}

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	if userCount != 6 { // 5 citizens plus the admin
		t.Fatalf("expected 6 users, got %d", userCount)
	}

	var admins int64
	db.Model(&models.User{}).Where("is_admin = ?", true).Count(&admins)
	if admins != 1 {
		t.Fatalf("expected 1 admin, got %d", admins)
	}

	var requestCount int64
	db.Model(&models.DocumentRequest{}).Count(&requestCount)
	if requestCount != 12 {
		t.Fatalf("expected 12 requests, got %d", requestCount)
	}

	// Every backing file exists.
	var documents []models.Document
	db.Find(&documents)
	for _, doc := range documents {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(doc.FilePath))); err != nil {
			t.Fatalf("missing backing file for %s: %v", doc.Reference, err)
		}
	}

	// At most one open request per (requester, document) pair.
	type pairCount struct {
		RequesterID uint
		DocumentID  uint
		N           int64
	}
	var pairs []pairCount
	db.Model(&models.DocumentRequest{}).
		Select("requester_id, document_id, count(*) as n").
		Where("status IN ?", []string{"pending", "approved"}).
		Group("requester_id, document_id").
		Having("count(*) > 1").
		Scan(&pairs)
	if len(pairs) != 0 {
		t.Fatalf("found duplicate open requests: %+v", pairs)
	}

	// Approved requests carry a token; no other rows do.
	var approved []models.DocumentRequest
	db.Where("status = ?", models.RequestStatusApproved).Find(&approved)
	for _, request := range approved {
		var tokenCount int64
		db.Model(&models.DownloadToken{}).Where("request_id = ?", request.ID).Count(&tokenCount)
		if tokenCount != 1 {
			t.Fatalf("request %d has %d tokens", request.ID, tokenCount)
		}
		if request.ReviewedByID == nil || request.ProcessedAt == nil || request.ExpiresAt == nil {
			t.Fatalf("approved request %d missing review metadata", request.ID)
		}
	}
}

func TestCleanRemovesEverything(t *testing.T) {
	db := newSeedDB(t)

	if err := Run(db, Options{NumUsers: 3, NumRequests: 5, DownloadWindow: time.Hour}); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	if err := Clean(db); err != nil {
		t.Fatalf("clean: %v", err)
	}

	for _, model := range []interface{}{
		&models.User{}, &models.Document{}, &models.DocumentRequest{}, &models.DownloadToken{},
	} {
		var n int64
		db.Model(model).Count(&n)
		if n != 0 {
			t.Fatalf("expected empty table for %T, got %d rows", model, n)
		}
	}
}
