// Package validation contains input validation rules shared by handlers and services.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// PurposeMinLength and PurposeMaxLength bound the free-text purpose of a
	// document request.
	PurposeMinLength = 10
	PurposeMaxLength = 500

	// NotesMaxLength bounds the optional requester notes.
	NotesMaxLength = 1000

	// ReviewNotesMaxLength bounds admin notes on approve/reject.
	ReviewNotesMaxLength = 1000
)

// ValidatePurpose checks the stated purpose of a document request.
func ValidatePurpose(purpose string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(purpose))
	if n < PurposeMinLength {
		return fmt.Errorf("purpose must be at least %d characters", PurposeMinLength)
	}
	if n > PurposeMaxLength {
		return fmt.Errorf("purpose must be at most %d characters", PurposeMaxLength)
	}
	return nil
}

// ValidateNotes checks optional free-text notes.
func ValidateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > NotesMaxLength {
		return fmt.Errorf("notes must be at most %d characters", NotesMaxLength)
	}
	return nil
}

// ValidateReviewNotes checks admin notes supplied on a decision. Rejection
// requires a non-blank reason; approval notes are optional.
func ValidateReviewNotes(notes string, required bool) error {
	trimmed := strings.TrimSpace(notes)
	if required && trimmed == "" {
		return fmt.Errorf("a non-empty reason is required")
	}
	if utf8.RuneCountInString(trimmed) > ReviewNotesMaxLength {
		return fmt.Errorf("notes must be at most %d characters", ReviewNotesMaxLength)
	}
	return nil
}
