package models

import (
	"time"

	"github.com/google/uuid"
)

type Applicant struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID       string    `gorm:"type:text;uniqueIndex;not null" json:"session_id"`
	Name            string    `gorm:"type:text" json:"name"`
	Role            string    `gorm:"type:text" json:"role"`
	CareerGap       string    `gorm:"type:text" json:"career_gap"`
	ExperienceYears string    `gorm:"type:text" json:"experience_years"`
	ResumeLink      string    `gorm:"type:text" json:"resume_link"`
	CoverLetterLink string    `gorm:"type:text" json:"cover_letter_link"`
	SubmittedAt     time.Time `gorm:"type:timestamp" json:"submitted_at"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`

	Responses []InterviewResponse `gorm:"foreignKey:SessionID;references:SessionID" json:"responses,omitempty"`
}

func (Applicant) TableName() string {
	return "applicants"
}

// InterviewResponse is one answered Phase 2 question, kept for scoring.
type InterviewResponse struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID      string    `gorm:"type:text;index;not null" json:"session_id"`
	Position       int       `gorm:"not null" json:"position"`
	Question       string    `gorm:"type:text" json:"question"`
	ExpectedAnswer string    `gorm:"type:text" json:"expected_answer"`
	Answer         string    `gorm:"type:text" json:"answer"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (InterviewResponse) TableName() string {
	return "interview_responses"
}
