package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"planhub/internal/featureflags"
	"planhub/internal/models"
	"planhub/internal/observability"
	"planhub/internal/repository"
	"planhub/internal/storage"
	"planhub/internal/token"
)

// FlagBlockArchivedRedemption blocks redemption against documents that were
// archived after approval.
const FlagBlockArchivedRedemption = "block_archived_redemption"

// FileDownload is a ready-to-stream document file. The caller owns Content
// and must close it.
type FileDownload struct {
	Content     io.ReadCloser
	FileName    string
	Size        int64
	ContentType string
	RequestID   uint
}

// DownloadService redeems download tokens and streams document files.
type DownloadService struct {
	tokenRepo     repository.TokenRepository
	requestRepo   repository.RequestRepository
	accessLogRepo repository.AccessLogRepository
	store         storage.FileStore
	flags         *featureflags.Manager
}

// NewDownloadService returns a new DownloadService.
func NewDownloadService(
	tokenRepo repository.TokenRepository,
	requestRepo repository.RequestRepository,
	accessLogRepo repository.AccessLogRepository,
	store storage.FileStore,
	flags *featureflags.Manager,
) *DownloadService {
	return &DownloadService{
		tokenRepo:     tokenRepo,
		requestRepo:   requestRepo,
		accessLogRepo: accessLogRepo,
		store:         store,
		flags:         flags,
	}
}

// Redeem consumes a download token exactly once and returns the document file
// for streaming. Every attempt, successful or not, lands in the audit log.
func (s *DownloadService) Redeem(ctx context.Context, value, clientIP string) (*FileDownload, error) {
	now := time.Now()

	tok, err := s.tokenRepo.GetByValue(ctx, value)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			s.audit(ctx, nil, value, clientIP, "", models.OutcomeInvalidToken)
			return nil, models.NewNotFoundError("Download link", token.Prefix(value))
		}
		s.audit(ctx, nil, value, clientIP, "", models.OutcomeError)
		return nil, err
	}

	request, err := s.requestRepo.GetByIDWithRelations(ctx, tok.RequestID)
	if err != nil {
		s.audit(ctx, &tok.RequestID, value, clientIP, "", models.OutcomeError)
		return nil, err
	}
	doc := request.Document
	fileName := ""
	if doc != nil {
		fileName = doc.FileName
	}

	// Classification on a fresh read keeps the rejection reasons accurate,
	// but only the conditional update below decides who wins.
	if tok.Redeemed() {
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeAlreadyUsed)
		return nil, models.NewForbiddenError("Download link has already been used")
	}
	if tok.ExpiredAt(now) {
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeExpired)
		return nil, models.NewForbiddenError("Download link has expired")
	}
	if request.Status != models.RequestStatusApproved {
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeNotApproved)
		return nil, models.NewForbiddenError("Request is no longer approved")
	}
	if doc == nil {
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeError)
		return nil, models.NewNotFoundError("Document", request.DocumentID)
	}

	if s.flags != nil && s.flags.Enabled(FlagBlockArchivedRedemption, request.RequesterID) && !doc.Active {
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeArchived)
		return nil, models.NewForbiddenError("Document is no longer available")
	}

	// Verify the file exists before consuming the token, so a missing file
	// does not burn the citizen's only download.
	info, err := s.store.Stat(doc.FilePath)
	if err != nil {
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeFileMissing)
		return nil, models.NewNotFoundError("Document file", doc.ID)
	}

	redeemed, err := s.tokenRepo.Redeem(ctx, value, clientIP, now)
	if err != nil {
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeError)
		return nil, err
	}
	if !redeemed {
		// Lost the race, or the window closed between the read and the
		// update. Re-read to report the precise reason.
		fresh, err := s.tokenRepo.GetByValue(ctx, value)
		if err == nil && fresh.Redeemed() {
			s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeAlreadyUsed)
			return nil, models.NewForbiddenError("Download link has already been used")
		}
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeExpired)
		return nil, models.NewForbiddenError("Download link has expired")
	}

	content, err := s.store.Open(doc.FilePath)
	if err != nil {
		// The token is consumed at this point; surface a dependency error
		// so operators notice instead of quietly reissuing.
		s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeError)
		return nil, models.NewDependencyError(err)
	}

	s.audit(ctx, &tok.RequestID, value, clientIP, fileName, models.OutcomeSuccess)
	observability.GlobalLogger.InfoContext(ctx, "download token redeemed",
		slog.Uint64("request_id", uint64(tok.RequestID)),
		slog.String("token_prefix", token.Prefix(value)),
		slog.String("client_ip", clientIP),
	)

	return &FileDownload{
		Content:     content,
		FileName:    doc.FileName,
		Size:        info.Size,
		ContentType: doc.ContentType,
		RequestID:   tok.RequestID,
	}, nil
}

// History returns the audit trail for one request. Admin gating happens in
// the handler layer.
func (s *DownloadService) History(ctx context.Context, requestID uint, limit, offset int) ([]models.DownloadAccessLog, error) {
	return s.accessLogRepo.ListByRequest(ctx, requestID, limit, offset)
}

func (s *DownloadService) audit(ctx context.Context, requestID *uint, tokenValue, clientIP, fileName string, outcome models.DownloadOutcome) {
	observability.Redemptions.WithLabelValues(string(outcome)).Inc()

	entry := &models.DownloadAccessLog{
		RequestID: requestID,
		Token:     tokenValue,
		ClientIP:  clientIP,
		FileName:  fileName,
		Outcome:   outcome,
	}
	if err := s.accessLogRepo.Create(ctx, entry); err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "failed to write download audit entry",
			slog.String("outcome", string(outcome)),
			slog.String("token_prefix", token.Prefix(tokenValue)),
			slog.String("error", err.Error()),
		)
	}
}
