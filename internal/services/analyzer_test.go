package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/voice-screener/internal/models"
)

const resumeResponse = "```json\n" + `{
  "validation": {"isValid": true},
  "analysis": {"summary": "Solid Go background.", "strengths": ["APIs"], "matchScore": 0.8},
  "recommendedQuestions": {
    "technical": [{"question": "Explain channels.", "expectedAnswer": "Typed conduits."}, {"question": "  ", "expectedAnswer": "x"}],
    "behavioral": [{"question": "Tell us about a conflict.", "expectedAnswer": "STAR story."}]
  }
}` + "\n```"

func TestAnalyzer_ResumeOutcome(t *testing.T) {
	gem := &fakeGemini{responses: []string{resumeResponse}}
	bank := &fakeBank{results: []SearchResult{{Kind: "technical", Text: "Go concurrency", Score: 0.9}}}
	a := NewAnalyzerService(gem, bank, NewPromptBuilder(2, 1), 2)

	out, err := a.Analyze(context.Background(), AnalysisRequest{
		DocumentType: models.DocumentResume,
		Role:         "Backend Engineer",
		Text:         "Five years of Go.",
	})
	require.NoError(t, err)

	assert.True(t, out.Validation.IsValid)
	assert.JSONEq(t, `{"summary":"Solid Go background.","strengths":["APIs"],"matchScore":0.8}`, out.Analysis)
	require.Len(t, out.RecommendedQuestions.Technical, 1)
	assert.Equal(t, "Explain channels.", out.RecommendedQuestions.Technical[0].Question)
	require.Len(t, out.RecommendedQuestions.Behavioral, 1)

	assert.Equal(t, []string{"Backend Engineer"}, bank.roles)
	require.Len(t, gem.prompts, 1)
	assert.Contains(t, gem.prompts[0], "Go concurrency")
	assert.Contains(t, gem.prompts[0], "2 technical and 1 behavioral")
}

func TestAnalyzer_CoverLetterHasNoQuestions(t *testing.T) {
	gem := &fakeGemini{responses: []string{resumeResponse}}
	a := NewAnalyzerService(gem, nil, NewPromptBuilder(0, 0), 1)

	out, err := a.Analyze(context.Background(), AnalysisRequest{DocumentType: models.DocumentCoverLetter, Text: "Dear team"})
	require.NoError(t, err)

	assert.Empty(t, out.RecommendedQuestions.Technical)
	assert.NotNil(t, out.RecommendedQuestions.Technical)
	assert.Empty(t, out.RecommendedQuestions.Behavioral)
	assert.Contains(t, gem.prompts[0], "APPLICANT COVER LETTER")
}

func TestAnalyzer_InvalidDocumentGetsReason(t *testing.T) {
	gem := &fakeGemini{responses: []string{`{"validation":{"isValid":false},"analysis":null}`}}
	a := NewAnalyzerService(gem, nil, NewPromptBuilder(0, 0), 1)

	out, err := a.Analyze(context.Background(), AnalysisRequest{DocumentType: models.DocumentResume, Text: "invoice"})
	require.NoError(t, err)

	assert.False(t, out.Validation.IsValid)
	assert.Equal(t, "The document does not look like a resume.", out.Validation.Reason)
	assert.Equal(t, "{}", out.Analysis)
	assert.Empty(t, out.RecommendedQuestions.Technical)
	assert.Empty(t, out.RecommendedQuestions.Behavioral)
}

func TestAnalyzer_RetriesThenFails(t *testing.T) {
	boom := errors.New("quota")
	gem := &fakeGemini{errs: []error{boom, boom, boom}, responses: []string{""}}
	a := NewAnalyzerService(gem, &fakeBank{err: errors.New("down")}, NewPromptBuilder(0, 0), 3)

	_, err := a.Analyze(context.Background(), AnalysisRequest{DocumentType: models.DocumentResume, Text: "cv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, gem.prompts, 3)
}

func TestAnalyzer_GarbageResponse(t *testing.T) {
	gem := &fakeGemini{responses: []string{"I cannot help with that."}}
	a := NewAnalyzerService(gem, nil, NewPromptBuilder(0, 0), 1)

	_, err := a.Analyze(context.Background(), AnalysisRequest{DocumentType: models.DocumentResume, Text: "cv"})
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced object", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around object", "Here you go: {\"a\":[1]} thanks", `{"a":[1]}`},
		{"array", "[1,2]", "[1,2]"},
		{"plain", "  nothing  ", "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}
