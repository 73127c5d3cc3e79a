package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/voice-screener/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository interface {
	Create(document *models.Document) error
	FindByID(id uuid.UUID) (*models.Document, error)
	FindBySession(sessionID string) ([]models.Document, error)
	UpdateAnalysis(id uuid.UUID, analysis string, valid bool, reason string) error
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (d *documentRepository) Create(document *models.Document) error {
	if err := d.db.Create(document).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

func (d *documentRepository) FindByID(id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := d.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}

		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// FindBySession returns the documents of one interview, newest first.
func (d *documentRepository) FindBySession(sessionID string) ([]models.Document, error) {
	var docs []models.Document
	if err := d.db.Where("session_id = ?", sessionID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}

	return docs, nil
}

func (d *documentRepository) UpdateAnalysis(id uuid.UUID, analysis string, valid bool, reason string) error {
	updates := map[string]interface{}{
		"is_valid":   valid,
		"updated_at": time.Now(),
	}
	if analysis != "" {
		updates["analysis"] = analysis
	}
	if reason != "" {
		updates["validation_reason"] = reason
	}

	result := d.db.Model(&models.Document{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update analysis: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}

	return nil
}
