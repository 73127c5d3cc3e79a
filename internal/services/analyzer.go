package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"alfredoptarigan/voice-screener/internal/models"
)

type AnalysisRequest struct {
	DocumentType models.DocumentType
	Role         string
	Text         string
}

// AnalysisOutcome is what the model concluded about one document. Analysis
// is the raw JSON object forwarded to the interview as a string.
type AnalysisOutcome struct {
	Validation           models.Validation
	Analysis             string
	RecommendedQuestions models.RecommendedQuestions
}

type AnalyzerService interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error)
}

type analyzerService struct {
	geminiService GeminiService
	questionBank  QuestionBank
	promptBuilder *PromptBuilder
	maxRetries    int
	contextLimit  int
}

// NewAnalyzerService builds the analyzer. questionBank may be nil, in which
// case prompts carry no role material.
func NewAnalyzerService(
	geminiService GeminiService,
	questionBank QuestionBank,
	promptBuilder *PromptBuilder,
	maxRetries int,
) AnalyzerService {
	return &analyzerService{
		geminiService: geminiService,
		questionBank:  questionBank,
		promptBuilder: promptBuilder,
		maxRetries:    maxRetries,
		contextLimit:  5,
	}
}

type llmAnalysis struct {
	Validation           models.Validation           `json:"validation"`
	Analysis             json.RawMessage             `json:"analysis"`
	RecommendedQuestions models.RecommendedQuestions `json:"recommendedQuestions"`
}

func (a *analyzerService) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error) {
	roleContext, err := a.retrieveContext(ctx, req.Role, req.Text)
	if err != nil {
		log.Printf("⚠️ Failed to retrieve role context for %s: %v\n", req.Role, err)
	}

	prompt := a.promptBuilder.Build(req.DocumentType, req.Text, roleContext, req.Role)
	log.Printf("📝 %s analysis prompt length: %d characters", req.DocumentType, len(prompt))

	response, err := a.geminiService.GenerateJSONWithRetry(ctx, prompt, 0.3, a.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", req.DocumentType, err)
	}

	var raw llmAnalysis
	if err := parseJSONResponse(response, &raw); err != nil {
		return nil, err
	}

	outcome := &AnalysisOutcome{Validation: raw.Validation}
	if !outcome.Validation.IsValid && outcome.Validation.Reason == "" {
		outcome.Validation.Reason = "The document does not look like a " + humanDocumentType(req.DocumentType) + "."
	}

	outcome.Analysis = "{}"
	if len(raw.Analysis) > 0 && !bytes.Equal(raw.Analysis, []byte("null")) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw.Analysis); err == nil {
			outcome.Analysis = compact.String()
		}
	}

	if req.DocumentType == models.DocumentResume && outcome.Validation.IsValid {
		outcome.RecommendedQuestions = models.RecommendedQuestions{
			Technical:  cleanQuestions(raw.RecommendedQuestions.Technical),
			Behavioral: cleanQuestions(raw.RecommendedQuestions.Behavioral),
		}
	} else {
		outcome.RecommendedQuestions = models.RecommendedQuestions{
			Technical:  []models.Question{},
			Behavioral: []models.Question{},
		}
	}

	return outcome, nil
}

func (a *analyzerService) retrieveContext(ctx context.Context, role, text string) (string, error) {
	if a.questionBank == nil {
		return FormatRAGContext(nil), nil
	}

	embedding, err := a.geminiService.GenerateEmbedding(ctx, a.promptBuilder.BuildRetrievalQuery(role, text))
	if err != nil {
		return FormatRAGContext(nil), fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := a.questionBank.SearchRole(ctx, embedding, role, a.contextLimit)
	if err != nil {
		return FormatRAGContext(nil), err
	}
	return FormatRAGContext(results), nil
}

func cleanQuestions(in []models.Question) []models.Question {
	out := make([]models.Question, 0, len(in))
	for _, q := range in {
		q.Question = strings.TrimSpace(q.Question)
		q.ExpectedAnswer = strings.TrimSpace(q.ExpectedAnswer)
		if q.Question == "" {
			continue
		}
		out = append(out, q)
	}
	return out
}

func humanDocumentType(t models.DocumentType) string {
	if t == models.DocumentCoverLetter {
		return "cover letter"
	}
	return "resume"
}

func parseJSONResponse(response string, target interface{}) error {
	jsonStr := extractJSON(response)

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return nil
}

// extractJSON strips markdown fences and surrounding prose from model output.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj > startObj && (startArr == -1 || startObj < startArr) {
		return text[startObj : endObj+1]
	}
	if startArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return strings.TrimSpace(text)
}
