package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"alfredoptarigan/voice-screener/internal/models"
	"alfredoptarigan/voice-screener/internal/repositories"
)

type fakeGemini struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
	embedErr  error
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeGemini) GenerateJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	i := len(f.prompts) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeGemini) GenerateJSONWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error) {
	var out string
	err := retry(ctx, maxRetries, 0, func(int) error {
		text, err := f.GenerateJSON(ctx, prompt, temperature)
		out = text
		return err
	})
	return out, err
}

type fakeBank struct {
	results []SearchResult
	err     error
	roles   []string
}

func (f *fakeBank) InitCollection(ctx context.Context) error          { return nil }
func (f *fakeBank) Upsert(ctx context.Context, _ []BankEntry) error   { return nil }
func (f *fakeBank) DeleteSource(ctx context.Context, _ string) error  { return nil }
func (f *fakeBank) Close() error                                      { return nil }
func (f *fakeBank) SearchRole(ctx context.Context, _ []float32, role string, limit int) ([]SearchResult, error) {
	f.roles = append(f.roles, role)
	return f.results, f.err
}

type fakeDocRepo struct {
	mu        sync.Mutex
	created   []*models.Document
	updates   map[uuid.UUID]string
	createErr error
}

func (f *fakeDocRepo) Create(d *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, d)
	return nil
}

func (f *fakeDocRepo) FindByID(id uuid.UUID) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.created {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, repositories.ErrDocumentNotFound
}

func (f *fakeDocRepo) FindBySession(sessionID string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []models.Document
	for i := len(f.created) - 1; i >= 0; i-- {
		if f.created[i].SessionID == sessionID {
			docs = append(docs, *f.created[i])
		}
	}
	return docs, nil
}

func (f *fakeDocRepo) UpdateAnalysis(id uuid.UUID, analysis string, valid bool, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[uuid.UUID]string{}
	}
	f.updates[id] = analysis
	return nil
}

type fakeParser struct {
	text string
	err  error
}

func (f fakeParser) ExtractText(data []byte) (*PDFContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &PDFContent{Text: f.text, PageCount: 1}, nil
}

type fakeAnalyzer struct {
	outcome *AnalysisOutcome
	err     error
	block   chan struct{}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error) {
	if f.block != nil {
		<-f.block
	}
	return f.outcome, f.err
}
