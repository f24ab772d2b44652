// Package service implements the business logic for the document portal.
package service

import (
	"context"
	"log/slog"
	"time"

	"planhub/internal/models"
	"planhub/internal/notifications"
	"planhub/internal/observability"
	"planhub/internal/repository"
	"planhub/internal/token"
	"planhub/internal/validation"
)

// EventPublisher publishes request lifecycle events. Dispatch is best-effort
// and never blocks or fails the triggering operation.
type EventPublisher interface {
	PublishRequestEvent(ctx context.Context, event notifications.RequestEvent) error
}

// CreateRequestInput carries the requester-supplied fields of a new request.
type CreateRequestInput struct {
	DocumentID uint                  `json:"document_id"`
	Purpose    string                `json:"purpose"`
	Urgency    models.RequestUrgency `json:"urgency"`
	Notes      string                `json:"notes"`
}

// RequestService provides the document request lifecycle business logic.
type RequestService struct {
	requestRepo  repository.RequestRepository
	documentRepo repository.DocumentRepository
	tokenRepo    repository.TokenRepository
	notifier     EventPublisher
	window       time.Duration
	accessWindow time.Duration
	generate     func() string
}

// NewRequestService returns a new RequestService. window is the lifetime of
// each minted token; accessWindow is how long an approval stays redeemable,
// so an expired unredeemed token can be reissued until it closes.
func NewRequestService(
	requestRepo repository.RequestRepository,
	documentRepo repository.DocumentRepository,
	tokenRepo repository.TokenRepository,
	notifier EventPublisher,
	window time.Duration,
	accessWindow time.Duration,
) *RequestService {
	return &RequestService{
		requestRepo:  requestRepo,
		documentRepo: documentRepo,
		tokenRepo:    tokenRepo,
		notifier:     notifier,
		window:       window,
		accessWindow: accessWindow,
		generate:     token.Generate,
	}
}

// Create submits a new document request on behalf of the actor.
func (s *RequestService) Create(ctx context.Context, actor models.Actor, input CreateRequestInput) (*models.DocumentRequest, error) {
	if err := validation.ValidatePurpose(input.Purpose); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateNotes(input.Notes); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	urgency := input.Urgency
	if urgency == "" {
		urgency = models.UrgencyMedium
	}
	if !urgency.Valid() {
		return nil, models.NewValidationError("Urgency must be one of low, medium, high, urgent")
	}

	doc, err := s.documentRepo.GetByID(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if !doc.Active {
		return nil, models.NewNotFoundError("Document", input.DocumentID)
	}

	// Pre-check keeps the common duplicate case friendly; the partial unique
	// index catches the race and surfaces as a duplicate-key conflict.
	open, err := s.requestRepo.HasOpenForRequesterAndDocument(ctx, actor.UserID, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, models.NewConflictError("You already have an open request for this document")
	}

	request := &models.DocumentRequest{
		RequesterID: actor.UserID,
		DocumentID:  input.DocumentID,
		Purpose:     input.Purpose,
		Urgency:     urgency,
		Notes:       input.Notes,
		Status:      models.RequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	observability.RequestTransitions.WithLabelValues("submitted").Inc()
	s.dispatch(notifications.RequestEvent{
		Event:         notifications.EventRequestSubmitted,
		RequestID:     request.ID,
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		RequesterID:   actor.UserID,
	})

	return s.requestRepo.GetByIDWithRelations(ctx, request.ID)
}

// Approve transitions a pending request to approved and mints its single-use
// download token. Only admins may approve.
func (s *RequestService) Approve(ctx context.Context, actor models.Actor, requestID uint, reviewNotes string) (*models.DocumentRequest, *models.DownloadToken, error) {
	if !actor.Admin {
		return nil, nil, models.NewForbiddenError("Only administrators can approve requests")
	}
	if err := validation.ValidateReviewNotes(reviewNotes, false); err != nil {
		return nil, nil, models.NewValidationError(err.Error())
	}

	now := time.Now()
	requestExpiresAt := now.Add(s.accessWindow)
	tokenExpiresAt := now.Add(s.window)
	if tokenExpiresAt.After(requestExpiresAt) {
		tokenExpiresAt = requestExpiresAt
	}
	issued, err := s.requestRepo.ApproveWithToken(ctx, requestID, actor.UserID, reviewNotes, requestExpiresAt, tokenExpiresAt, s.generate())
	if err != nil {
		return nil, nil, err
	}

	observability.RequestTransitions.WithLabelValues("approved").Inc()
	observability.TokensIssued.WithLabelValues("approval").Inc()

	request, err := s.requestRepo.GetByIDWithRelations(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}

	s.dispatch(notifications.RequestEvent{
		Event:       notifications.EventRequestApproved,
		RequestID:   request.ID,
		DocumentID:  request.DocumentID,
		RequesterID: request.RequesterID,
	})

	return request, issued, nil
}

// Reject transitions a pending request to rejected. Review notes explaining
// the decision are mandatory. Only admins may reject.
func (s *RequestService) Reject(ctx context.Context, actor models.Actor, requestID uint, reviewNotes string) (*models.DocumentRequest, error) {
	if !actor.Admin {
		return nil, models.NewForbiddenError("Only administrators can reject requests")
	}
	if err := validation.ValidateReviewNotes(reviewNotes, true); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	updated, err := s.requestRepo.UpdateIfStatus(ctx, requestID, models.RequestStatusPending, map[string]interface{}{
		"status":         models.RequestStatusRejected,
		"review_notes":   reviewNotes,
		"reviewed_by_id": actor.UserID,
		"processed_at":   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, s.classifyFailedTransition(ctx, requestID)
	}

	observability.RequestTransitions.WithLabelValues("rejected").Inc()

	request, err := s.requestRepo.GetByIDWithRelations(ctx, requestID)
	if err != nil {
		return nil, err
	}

	s.dispatch(notifications.RequestEvent{
		Event:       notifications.EventRequestRejected,
		RequestID:   request.ID,
		DocumentID:  request.DocumentID,
		RequesterID: request.RequesterID,
	})

	return request, nil
}

// Cancel withdraws a pending request. Only the requester may cancel, and only
// while the request is still pending.
func (s *RequestService) Cancel(ctx context.Context, actor models.Actor, requestID uint) (*models.DocumentRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.RequesterID != actor.UserID {
		return nil, models.NewForbiddenError("You can only cancel your own requests")
	}

	// processed_at is reserved for reviewer decisions; a withdrawal keeps
	// only updated_at as its timestamp.
	updated, err := s.requestRepo.UpdateIfStatus(ctx, requestID, models.RequestStatusPending, map[string]interface{}{
		"status": models.RequestStatusCancelled,
	})
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, s.classifyFailedTransition(ctx, requestID)
	}

	observability.RequestTransitions.WithLabelValues("cancelled").Inc()
	return s.requestRepo.GetByIDWithRelations(ctx, requestID)
}

// RegenerateLink issues a fresh download token for an approved request whose
// previous token expired unredeemed. When an active token still exists it is
// returned unchanged, so repeated calls are harmless.
func (s *RequestService) RegenerateLink(ctx context.Context, actor models.Actor, requestID uint) (*models.DownloadToken, bool, error) {
	if !actor.Admin {
		return nil, false, models.NewForbiddenError("Only administrators can regenerate download links")
	}

	request, err := s.requestRepo.GetByIDWithRelations(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	if request.Status != models.RequestStatusApproved {
		return nil, false, models.NewConflictError("Download links can only be regenerated for approved requests")
	}
	if request.Fulfilled() {
		return nil, false, models.NewConflictError("Request has already been fulfilled")
	}

	now := time.Now()
	expiresAt := now.Add(s.window)
	if request.ExpiresAt != nil {
		if !now.Before(*request.ExpiresAt) {
			return nil, false, models.NewConflictError("Request access window has expired")
		}
		if expiresAt.After(*request.ExpiresAt) {
			expiresAt = *request.ExpiresAt
		}
	}
	value := s.generate()
	inserted, err := s.tokenRepo.IssueIfNoneActive(ctx, requestID, value, expiresAt, now)
	if err != nil {
		return nil, false, err
	}

	if !inserted {
		existing, err := s.tokenRepo.GetActiveByRequest(ctx, requestID, now)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	observability.TokensIssued.WithLabelValues("regenerate").Inc()
	observability.GlobalLogger.InfoContext(ctx, "download link regenerated",
		slog.Uint64("request_id", uint64(requestID)),
		slog.String("token_prefix", token.Prefix(value)),
	)

	issued, err := s.tokenRepo.GetActiveByRequest(ctx, requestID, now)
	if err != nil {
		return nil, false, err
	}
	return issued, true, nil
}

// GetByID returns one request. Requesters see only their own; admins see all.
func (s *RequestService) GetByID(ctx context.Context, actor models.Actor, requestID uint) (*models.DocumentRequest, error) {
	request, err := s.requestRepo.GetByIDWithRelations(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && request.RequesterID != actor.UserID {
		return nil, models.NewForbiddenError("You can only view your own requests")
	}
	return request, nil
}

// ListForUser returns the actor's own requests, newest first.
func (s *RequestService) ListForUser(ctx context.Context, actor models.Actor, limit, offset int) ([]models.DocumentRequest, error) {
	return s.requestRepo.ListByRequester(ctx, actor.UserID, limit, offset)
}

// ListPending returns the review queue, oldest first. Only admins may list it.
func (s *RequestService) ListPending(ctx context.Context, actor models.Actor, limit, offset int) ([]models.DocumentRequest, error) {
	if !actor.Admin {
		return nil, models.NewForbiddenError("Only administrators can view the review queue")
	}
	return s.requestRepo.ListByStatus(ctx, models.RequestStatusPending, limit, offset)
}

// classifyFailedTransition turns a failed conditional update into the right
// caller-facing error: the request is either gone or no longer pending.
func (s *RequestService) classifyFailedTransition(ctx context.Context, requestID uint) error {
	if _, err := s.requestRepo.GetByID(ctx, requestID); err != nil {
		return err
	}
	return models.NewConflictError("Request is not pending")
}

func (s *RequestService) dispatch(event notifications.RequestEvent) {
	if s.notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				observability.GlobalLogger.Error("panic in notification dispatch", slog.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.notifier.PublishRequestEvent(ctx, event); err != nil {
			observability.NotificationFailures.Inc()
			observability.LogAsyncOperationError(ctx, "publish_request_event", err, map[string]interface{}{
				"event":      event.Event,
				"request_id": event.RequestID,
			})
		}
	}()
}
