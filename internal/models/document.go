package models

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentResume      DocumentType = "resume"
	DocumentCoverLetter DocumentType = "coverLetter"
)

func (t DocumentType) Valid() bool {
	return t == DocumentResume || t == DocumentCoverLetter
}

type Document struct {
	ID               uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID        string       `gorm:"type:text;index" json:"session_id"`
	DocumentType     DocumentType `gorm:"type:text;not null" json:"document_type"`
	Role             string       `gorm:"type:text" json:"role"`
	OriginalFileName string       `gorm:"type:text" json:"original_filename"`
	StorageKey       string       `gorm:"type:text" json:"storage_key"`
	URL              string       `gorm:"type:text" json:"url"`
	Analysis         *string      `gorm:"type:jsonb" json:"analysis,omitempty"`
	IsValid          bool         `gorm:"not null;default:false" json:"is_valid"`
	ValidationReason *string      `gorm:"type:text" json:"validation_reason,omitempty"`
	CreatedAt        time.Time    `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}
