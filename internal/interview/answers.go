package interview

import (
	"context"
	"time"

	"alfredoptarigan/voice-screener/internal/upload"
)

// Answers accumulates validated Phase 1 values, document links and analysis
// payloads. Only the controller writes to it.
type Answers struct {
	Values   map[string]string           `json:"values"`
	Links    map[string]string           `json:"links"`
	Analyses map[string]*upload.Analysis `json:"analyses,omitempty"`
	Results  map[string]*upload.Result   `json:"-"`
}

func newAnswers() *Answers {
	return &Answers{
		Values:   make(map[string]string),
		Links:    make(map[string]string),
		Analyses: make(map[string]*upload.Analysis),
		Results:  make(map[string]*upload.Result),
	}
}

func (a *Answers) clone() Answers {
	out := Answers{
		Values:   make(map[string]string, len(a.Values)),
		Links:    make(map[string]string, len(a.Links)),
		Analyses: make(map[string]*upload.Analysis, len(a.Analyses)),
	}
	for k, v := range a.Values {
		out.Values[k] = v
	}
	for k, v := range a.Links {
		out.Links[k] = v
	}
	for k, v := range a.Analyses {
		out.Analyses[k] = v
	}
	return out
}

// Phase2Response is one answered generated question.
type Phase2Response struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expectedAnswer"`
	Answer         string `json:"answer"`
}

// ApplicantRecord is the Phase 1 outcome sent to the screening backend.
type ApplicantRecord struct {
	SessionID       string    `json:"sessionId"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	CareerGap       string    `json:"careerGap"`
	ExperienceYears string    `json:"experienceYears"`
	ResumeLink      string    `json:"resumeLink"`
	CoverLetterLink string    `json:"coverLetterLink"`
	Timestamp       time.Time `json:"timestamp"`
}

// ApplicantStore persists interview outcomes. Calls are best effort: a
// failure is surfaced as a warning and the interview carries on.
type ApplicantStore interface {
	SaveApplicant(ctx context.Context, rec ApplicantRecord) error
	SaveResponses(ctx context.Context, sessionID string, responses []Phase2Response) error
}
