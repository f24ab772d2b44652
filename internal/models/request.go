package models

import (
	"encoding/json"
	"time"
)

// RequestStatus defines lifecycle states for document access requests.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting admin review.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusApproved indicates the request was accepted and a
	// download token was issued.
	RequestStatusApproved RequestStatus = "approved"
	// RequestStatusRejected indicates the request was denied.
	RequestStatusRejected RequestStatus = "rejected"
	// RequestStatusCancelled indicates the requester withdrew the request
	// while it was still pending.
	RequestStatusCancelled RequestStatus = "cancelled"
)

// RequestUrgency is the requester-declared urgency of a document request.
type RequestUrgency string

const (
	UrgencyLow    RequestUrgency = "low"
	UrgencyMedium RequestUrgency = "medium"
	UrgencyHigh   RequestUrgency = "high"
	UrgencyUrgent RequestUrgency = "urgent"
)

// Valid reports whether the urgency is one of the enumerated values.
func (u RequestUrgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return true
	}
	return false
}

// DocumentRequest is a citizen's request to access one restricted document.
//
// At most one non-terminal request may exist per (requester, document) pair;
// a partial unique index enforces this at the database level in addition to
// the pre-insert check in the service layer. Terminal rows are never deleted.
type DocumentRequest struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	RequesterID  uint             `gorm:"not null;index:idx_requests_requester_document" json:"requester_id"`
	Requester    *User            `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	DocumentID   uint             `gorm:"not null;index:idx_requests_requester_document" json:"document_id"`
	Document     *Document        `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Purpose      string           `gorm:"type:text;not null" json:"purpose"`
	Urgency      RequestUrgency   `gorm:"type:varchar(10);not null;default:'medium'" json:"urgency"`
	Notes        string           `gorm:"type:text" json:"notes"`
	Status       RequestStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewNotes  string           `gorm:"type:text" json:"review_notes"`
	ReviewedByID *uint            `json:"reviewed_by_id"`
	ReviewedBy   *User            `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	ProcessedAt  *time.Time       `json:"processed_at"`
	ExpiresAt    *time.Time       `json:"expires_at"`
	Tokens       []DownloadToken  `gorm:"foreignKey:RequestID" json:"-"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Open reports whether the request still occupies the single non-terminal
// slot for its (requester, document) pair.
func (r *DocumentRequest) Open() bool {
	return r.Status == RequestStatusPending || r.Status == RequestStatusApproved
}

// MarshalJSON adds a derived "fulfilled" field so clients never have to
// inspect token state themselves.
func (r DocumentRequest) MarshalJSON() ([]byte, error) {
	type alias DocumentRequest
	return json.Marshal(struct {
		alias
		Fulfilled bool `json:"fulfilled"`
	}{alias(r), r.Fulfilled()})
}

// Fulfilled reports whether any issued token has been redeemed.
func (r *DocumentRequest) Fulfilled() bool {
	for i := range r.Tokens {
		if r.Tokens[i].RedeemedAt != nil {
			return true
		}
	}
	return false
}
