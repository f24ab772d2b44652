package repository

import (
	"context"
	"errors"
	"time"

	"planhub/internal/models"

	"gorm.io/gorm"
)

// TokenRepository defines persistence operations for download tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.DownloadToken) error
	GetByValue(ctx context.Context, value string) (*models.DownloadToken, error)
	GetActiveByRequest(ctx context.Context, requestID uint, now time.Time) (*models.DownloadToken, error)
	Redeem(ctx context.Context, value, origin string, now time.Time) (bool, error)
	IssueIfNoneActive(ctx context.Context, requestID uint, value string, expiresAt, now time.Time) (bool, error)
}

type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository returns a new TokenRepository implementation.
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *models.DownloadToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("token value collision")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tokenRepository) GetByValue(ctx context.Context, value string) (*models.DownloadToken, error) {
	var token models.DownloadToken
	if err := r.db.WithContext(ctx).
		Where("token = ?", value).
		First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Token", "download")
		}
		return nil, models.NewInternalError(err)
	}
	return &token, nil
}

func (r *tokenRepository) GetActiveByRequest(ctx context.Context, requestID uint, now time.Time) (*models.DownloadToken, error) {
	var token models.DownloadToken
	if err := r.db.WithContext(ctx).
		Where("request_id = ? AND redeemed_at IS NULL AND expires_at > ?", requestID, now).
		Order("created_at DESC").
		First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Token", requestID)
		}
		return nil, models.NewInternalError(err)
	}
	return &token, nil
}

// Redeem consumes the token in a single conditional UPDATE. Exactly one of
// any number of concurrent callers observes true; everyone else sees the
// guard fail and must re-read the row to classify why.
func (r *tokenRepository) Redeem(ctx context.Context, value, origin string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.DownloadToken{}).
		Where("token = ? AND redeemed_at IS NULL AND expires_at > ?", value, now).
		Updates(map[string]interface{}{
			"redeemed_at":   now,
			"redeemed_from": origin,
		})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// IssueIfNoneActive inserts a new token for the request only when no
// unredeemed, unexpired token exists. The conditional INSERT ... SELECT
// keeps the at-most-one-active-token invariant without locking.
func (r *tokenRepository) IssueIfNoneActive(ctx context.Context, requestID uint, value string, expiresAt, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO download_tokens (token, request_id, expires_at, created_at)
		 SELECT ?, ?, ?, ?
		 WHERE NOT EXISTS (
		     SELECT 1 FROM download_tokens
		     WHERE request_id = ? AND redeemed_at IS NULL AND expires_at > ?
		 )`,
		value, requestID, expiresAt, now, requestID, now,
	)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected == 1, nil
}
