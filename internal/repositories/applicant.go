package repositories

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/voice-screener/internal/models"
)

var ErrApplicantNotFound = errors.New("applicant not found")

type ApplicantRepository interface {
	Upsert(applicant *models.Applicant) error
	FindBySessionID(sessionID string) (*models.Applicant, error)
	ReplaceResponses(sessionID string, responses []models.InterviewResponse) error
}

type applicantRepository struct {
	db *gorm.DB
}

func NewApplicantRepository(db *gorm.DB) ApplicantRepository {
	return &applicantRepository{db: db}
}

// Upsert stores the applicant, overwriting an earlier record of the same
// interview session.
func (r *applicantRepository) Upsert(applicant *models.Applicant) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "role", "career_gap", "experience_years",
			"resume_link", "cover_letter_link", "submitted_at", "updated_at",
		}),
	}).Create(applicant).Error
	if err != nil {
		return fmt.Errorf("failed to save applicant: %w", err)
	}
	return nil
}

func (r *applicantRepository) FindBySessionID(sessionID string) (*models.Applicant, error) {
	var applicant models.Applicant
	err := r.db.Preload("Responses", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("session_id = ?", sessionID).First(&applicant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicantNotFound
		}
		return nil, fmt.Errorf("failed to find applicant: %w", err)
	}
	return &applicant, nil
}

// ReplaceResponses swaps the stored Phase 2 answers of a session in one
// transaction. A placeholder applicant is created when none was saved yet.
func (r *applicantRepository) ReplaceResponses(sessionID string, responses []models.InterviewResponse) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		stub := &models.Applicant{ID: uuid.New(), SessionID: sessionID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(stub).Error; err != nil {
			return fmt.Errorf("failed to ensure applicant: %w", err)
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&models.InterviewResponse{}).Error; err != nil {
			return fmt.Errorf("failed to clear responses: %w", err)
		}
		if len(responses) == 0 {
			return nil
		}
		for i := range responses {
			responses[i].ID = uuid.New()
			responses[i].SessionID = sessionID
			responses[i].Position = i
		}
		if err := tx.Create(&responses).Error; err != nil {
			return fmt.Errorf("failed to save responses: %w", err)
		}
		return nil
	})
}
