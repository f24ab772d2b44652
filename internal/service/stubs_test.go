package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"planhub/internal/models"
	"planhub/internal/notifications"
	"planhub/internal/storage"
)

type requestRepoStub struct {
	createFn               func(context.Context, *models.DocumentRequest) error
	getByIDFn              func(context.Context, uint) (*models.DocumentRequest, error)
	getByIDWithRelationsFn func(context.Context, uint) (*models.DocumentRequest, error)
	listByRequesterFn      func(context.Context, uint, int, int) ([]models.DocumentRequest, error)
	listByStatusFn         func(context.Context, models.RequestStatus, int, int) ([]models.DocumentRequest, error)
	hasOpenFn              func(context.Context, uint, uint) (bool, error)
	updateIfStatusFn       func(context.Context, uint, models.RequestStatus, map[string]interface{}) (bool, error)
	approveWithTokenFn     func(context.Context, uint, uint, string, time.Time, time.Time, string) (*models.DownloadToken, error)
}

func (s *requestRepoStub) Create(ctx context.Context, r *models.DocumentRequest) error {
	return s.createFn(ctx, r)
}
func (s *requestRepoStub) GetByID(ctx context.Context, id uint) (*models.DocumentRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *requestRepoStub) GetByIDWithRelations(ctx context.Context, id uint) (*models.DocumentRequest, error) {
	return s.getByIDWithRelationsFn(ctx, id)
}
func (s *requestRepoStub) ListByRequester(ctx context.Context, requesterID uint, limit, offset int) ([]models.DocumentRequest, error) {
	return s.listByRequesterFn(ctx, requesterID, limit, offset)
}
func (s *requestRepoStub) ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.DocumentRequest, error) {
	return s.listByStatusFn(ctx, status, limit, offset)
}
func (s *requestRepoStub) HasOpenForRequesterAndDocument(ctx context.Context, requesterID, documentID uint) (bool, error) {
	return s.hasOpenFn(ctx, requesterID, documentID)
}
func (s *requestRepoStub) UpdateIfStatus(ctx context.Context, id uint, from models.RequestStatus, updates map[string]interface{}) (bool, error) {
	return s.updateIfStatusFn(ctx, id, from, updates)
}
func (s *requestRepoStub) ApproveWithToken(ctx context.Context, id, reviewerID uint, notes string, requestExpiresAt, tokenExpiresAt time.Time, value string) (*models.DownloadToken, error) {
	return s.approveWithTokenFn(ctx, id, reviewerID, notes, requestExpiresAt, tokenExpiresAt, value)
}

func noopRequestRepo() *requestRepoStub {
	return &requestRepoStub{
		createFn: func(context.Context, *models.DocumentRequest) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.DocumentRequest, error) {
			return &models.DocumentRequest{}, nil
		},
		getByIDWithRelationsFn: func(context.Context, uint) (*models.DocumentRequest, error) {
			return &models.DocumentRequest{}, nil
		},
		listByRequesterFn: func(context.Context, uint, int, int) ([]models.DocumentRequest, error) {
			return nil, nil
		},
		listByStatusFn: func(context.Context, models.RequestStatus, int, int) ([]models.DocumentRequest, error) {
			return nil, nil
		},
		hasOpenFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
		updateIfStatusFn: func(context.Context, uint, models.RequestStatus, map[string]interface{}) (bool, error) {
			return true, nil
		},
		approveWithTokenFn: func(_ context.Context, id, _ uint, _ string, _, expiresAt time.Time, value string) (*models.DownloadToken, error) {
			return &models.DownloadToken{Token: value, RequestID: id, ExpiresAt: expiresAt}, nil
		},
	}
}

type documentRepoStub struct {
	createFn          func(context.Context, *models.Document) error
	getByIDFn         func(context.Context, uint) (*models.Document, error)
	getByReferenceFn  func(context.Context, string) (*models.Document, error)
	listActiveFn      func(context.Context, int, int) ([]models.Document, error)
	updateFn          func(context.Context, *models.Document) error
	setActiveFn       func(context.Context, uint, bool) error
}

func (s *documentRepoStub) Create(ctx context.Context, d *models.Document) error {
	return s.createFn(ctx, d)
}
func (s *documentRepoStub) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	return s.getByIDFn(ctx, id)
}
func (s *documentRepoStub) GetByReference(ctx context.Context, ref string) (*models.Document, error) {
	return s.getByReferenceFn(ctx, ref)
}
func (s *documentRepoStub) ListActive(ctx context.Context, limit, offset int) ([]models.Document, error) {
	return s.listActiveFn(ctx, limit, offset)
}
func (s *documentRepoStub) Update(ctx context.Context, d *models.Document) error {
	return s.updateFn(ctx, d)
}
func (s *documentRepoStub) SetActive(ctx context.Context, id uint, active bool) error {
	return s.setActiveFn(ctx, id, active)
}

func noopDocumentRepo() *documentRepoStub {
	return &documentRepoStub{
		createFn: func(context.Context, *models.Document) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Document, error) {
			return &models.Document{ID: id, Title: "Zoning Plan", FileName: "zoning.pdf", FilePath: "plans/zoning.pdf", Active: true}, nil
		},
		getByReferenceFn: func(context.Context, string) (*models.Document, error) {
			return &models.Document{Active: true}, nil
		},
		listActiveFn: func(context.Context, int, int) ([]models.Document, error) { return nil, nil },
		updateFn:     func(context.Context, *models.Document) error { return nil },
		setActiveFn:  func(context.Context, uint, bool) error { return nil },
	}
}

type tokenRepoStub struct {
	mu sync.Mutex

	createFn             func(context.Context, *models.DownloadToken) error
	getByValueFn         func(context.Context, string) (*models.DownloadToken, error)
	getActiveByRequestFn func(context.Context, uint, time.Time) (*models.DownloadToken, error)
	redeemFn             func(context.Context, string, string, time.Time) (bool, error)
	issueIfNoneActiveFn  func(context.Context, uint, string, time.Time, time.Time) (bool, error)
}

func (s *tokenRepoStub) Create(ctx context.Context, t *models.DownloadToken) error {
	return s.createFn(ctx, t)
}
func (s *tokenRepoStub) GetByValue(ctx context.Context, value string) (*models.DownloadToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getByValueFn(ctx, value)
}
func (s *tokenRepoStub) GetActiveByRequest(ctx context.Context, requestID uint, now time.Time) (*models.DownloadToken, error) {
	return s.getActiveByRequestFn(ctx, requestID, now)
}
func (s *tokenRepoStub) Redeem(ctx context.Context, value, origin string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redeemFn(ctx, value, origin, now)
}
func (s *tokenRepoStub) IssueIfNoneActive(ctx context.Context, requestID uint, value string, expiresAt, now time.Time) (bool, error) {
	return s.issueIfNoneActiveFn(ctx, requestID, value, expiresAt, now)
}

func noopTokenRepo() *tokenRepoStub {
	return &tokenRepoStub{
		createFn: func(context.Context, *models.DownloadToken) error { return nil },
		getByValueFn: func(context.Context, string) (*models.DownloadToken, error) {
			return &models.DownloadToken{}, nil
		},
		getActiveByRequestFn: func(context.Context, uint, time.Time) (*models.DownloadToken, error) {
			return &models.DownloadToken{}, nil
		},
		redeemFn: func(context.Context, string, string, time.Time) (bool, error) { return true, nil },
		issueIfNoneActiveFn: func(context.Context, uint, string, time.Time, time.Time) (bool, error) {
			return true, nil
		},
	}
}

type accessLogRepoStub struct {
	mu      sync.Mutex
	entries []models.DownloadAccessLog

	listByRequestFn func(context.Context, uint, int, int) ([]models.DownloadAccessLog, error)
}

func (s *accessLogRepoStub) Create(_ context.Context, entry *models.DownloadAccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}
func (s *accessLogRepoStub) ListByRequest(ctx context.Context, requestID uint, limit, offset int) ([]models.DownloadAccessLog, error) {
	if s.listByRequestFn != nil {
		return s.listByRequestFn(ctx, requestID, limit, offset)
	}
	return nil, nil
}
func (s *accessLogRepoStub) outcomes() []models.DownloadOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DownloadOutcome, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Outcome)
	}
	return out
}

type storeStub struct {
	statFn func(string) (*storage.FileInfo, error)
	openFn func(string) (io.ReadCloser, error)
}

func (s *storeStub) Stat(path string) (*storage.FileInfo, error) {
	if s.statFn != nil {
		return s.statFn(path)
	}
	return &storage.FileInfo{Size: 9}, nil
}
func (s *storeStub) Open(path string) (io.ReadCloser, error) {
	if s.openFn != nil {
		return s.openFn(path)
	}
	return io.NopCloser(strings.NewReader("pdf-bytes")), nil
}

type publisherStub struct {
	events chan notifications.RequestEvent
	err    error
}

func newPublisherStub() *publisherStub {
	return &publisherStub{events: make(chan notifications.RequestEvent, 8)}
}

func (s *publisherStub) PublishRequestEvent(_ context.Context, event notifications.RequestEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events <- event
	return nil
}
