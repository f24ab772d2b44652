package models

import "time"

// Document is a restricted planning document available on request. The stored
// file itself lives in the file store; this row carries the metadata needed
// for existence checks and for setting transfer headers at download time.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Reference   string    `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	Description string    `gorm:"type:text" json:"description"`
	FilePath    string    `gorm:"size:512;not null" json:"-"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	FileSize    int64     `gorm:"not null" json:"file_size"`
	ContentType string    `gorm:"size:128;not null" json:"content_type"`
	Active      bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
