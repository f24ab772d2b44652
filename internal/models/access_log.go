package models

import "time"

// DownloadOutcome classifies a redemption attempt in the audit log.
type DownloadOutcome string

const (
	OutcomeSuccess      DownloadOutcome = "success"
	OutcomeInvalidToken DownloadOutcome = "invalid_token"
	OutcomeAlreadyUsed  DownloadOutcome = "already_used"
	OutcomeExpired      DownloadOutcome = "expired"
	OutcomeNotApproved  DownloadOutcome = "not_approved"
	OutcomeArchived     DownloadOutcome = "document_archived"
	OutcomeFileMissing  DownloadOutcome = "file_missing"
	OutcomeError        DownloadOutcome = "error"
)

// DownloadAccessLog is an append-only audit record of one redemption attempt,
// successful or not. This is the only place the full token value is persisted
// outside the tokens table; application logs carry only a prefix.
type DownloadAccessLog struct {
	ID        string          `gorm:"size:36;primaryKey" json:"id"`
	RequestID *uint           `gorm:"index" json:"request_id"`
	Token     string          `gorm:"size:64;index" json:"token"`
	ClientIP  string          `gorm:"size:64" json:"client_ip"`
	FileName  string          `gorm:"size:255" json:"file_name"`
	Outcome   DownloadOutcome `gorm:"type:varchar(32);not null;index" json:"outcome"`
	CreatedAt time.Time       `json:"created_at"`
}
