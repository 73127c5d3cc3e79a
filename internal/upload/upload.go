// Package upload runs document uploads in the background while the interview
// carries on. Settlement is never applied in place: it is posted back to the
// session loop, which stays the only writer of interview state.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DocumentResume      = "resume"
	DocumentCoverLetter = "coverLetter"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Request struct {
	SessionID    string
	DocumentType string
	Role         string
	File         File
}

type Question struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expectedAnswer"`
}

type RecommendedQuestions struct {
	Technical  []Question `json:"technical"`
	Behavioral []Question `json:"behavioral"`
}

// All returns technical questions followed by behavioral ones.
func (r RecommendedQuestions) All() []Question {
	out := make([]Question, 0, len(r.Technical)+len(r.Behavioral))
	out = append(out, r.Technical...)
	return append(out, r.Behavioral...)
}

type Validation struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason,omitempty"`
}

// Result is the settled payload of a successful upload.
type Result struct {
	URL                  string
	Key                  string
	DocumentType         string
	Analysis             string
	Validation           Validation
	RecommendedQuestions RecommendedQuestions
}

// Uploader sends one document to the screening backend.
type Uploader interface {
	UploadDocument(ctx context.Context, req Request) (*Result, error)
}

// Analysis is the decoded analysis JSON string of an upload result.
type Analysis struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths,omitempty"`
	Gaps       []string `json:"gaps,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	MatchScore float64  `json:"matchScore,omitempty"`
	Raw        string   `json:"-"`
}

// ParseAnalysis decodes the analysis payload. A payload that is not JSON is
// kept as a plain summary.
func ParseAnalysis(raw string) (*Analysis, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &Analysis{}, nil
	}

	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		if strings.HasPrefix(raw, "{") {
			return nil, fmt.Errorf("failed to parse analysis: %w", err)
		}
		return &Analysis{Summary: raw, Raw: raw}, nil
	}
	a.Raw = raw
	return &a, nil
}

// Task tracks the latest upload of one document type.
type Task struct {
	Generation   uint64
	DocumentType string
	FileName     string
	Status       Status
	Result       *Result
	Err          error
	StartedAt    time.Time
	Elapsed      time.Duration
}

// Link returns the stored URL, or the pending placeholder while unresolved.
func (t *Task) Link() string {
	if t.Status == StatusSucceeded && t.Result != nil {
		return t.Result.URL
	}
	return PendingLink
}

// PendingLink is recorded for a document while its upload is unresolved.
const PendingLink = "pending"
