package models

import "time"

// DownloadToken is a single-use, time-limited credential bound to one
// approved request. The token value is both identity and credential, so it
// must come from a cryptographically secure source. Rows are never deleted;
// redeemed and expired tokens remain as audit trail.
type DownloadToken struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	Token        string           `gorm:"size:64;uniqueIndex;not null" json:"token"`
	RequestID    uint             `gorm:"not null;index" json:"request_id"`
	Request      *DocumentRequest `gorm:"foreignKey:RequestID" json:"-"`
	ExpiresAt    time.Time        `gorm:"not null" json:"expires_at"`
	RedeemedAt   *time.Time       `json:"redeemed_at"`
	RedeemedFrom string           `gorm:"size:64" json:"-"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Redeemed reports whether the token has been consumed.
func (t *DownloadToken) Redeemed() bool {
	return t.RedeemedAt != nil
}

// ExpiredAt reports whether the token's validity window has passed at now.
func (t *DownloadToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ActiveAt reports whether the token is unredeemed and unexpired at now.
func (t *DownloadToken) ActiveAt(now time.Time) bool {
	return !t.Redeemed() && !t.ExpiredAt(now)
}
