package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/voice-screener/internal/models"
	"alfredoptarigan/voice-screener/internal/repositories"
)

var (
	ErrInvalidDocumentType = errors.New("invalid document type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNotPDF              = errors.New("only PDF documents are accepted")
)

type DocumentUpload struct {
	SessionID    string
	DocumentType models.DocumentType
	Role         string
	FileName     string
	Data         []byte
}

// DocumentService stores, reads and analyzes one uploaded document.
type DocumentService interface {
	Process(ctx context.Context, in DocumentUpload) (*models.DocumentUploadData, error)
	Get(id uuid.UUID) (*models.Document, error)
	// ListBySession returns the documents of one interview, newest first.
	ListBySession(sessionID string) ([]models.Document, error)
}

type documentService struct {
	docRepo     repositories.DocumentRepository
	storage     StorageService
	pdfParser   PDFParserService
	pool        AnalysisPool
	maxFileSize int64
}

func NewDocumentService(
	docRepo repositories.DocumentRepository,
	storage StorageService,
	pdfParser PDFParserService,
	pool AnalysisPool,
	maxFileSize int64,
) DocumentService {
	return &documentService{
		docRepo:     docRepo,
		storage:     storage,
		pdfParser:   pdfParser,
		pool:        pool,
		maxFileSize: maxFileSize,
	}
}

// Process returns the upload data even when the document fails validation;
// callers check Validation.IsValid.
func (s *documentService) Process(ctx context.Context, in DocumentUpload) (*models.DocumentUploadData, error) {
	if !in.DocumentType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDocumentType, in.DocumentType)
	}
	if s.maxFileSize > 0 && int64(len(in.Data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: max size %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	if strings.ToLower(filepath.Ext(in.FileName)) != ".pdf" {
		return nil, ErrNotPDF
	}

	stored, err := s.storage.Save(ctx, in.SessionID, string(in.DocumentType), in.FileName, in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", in.DocumentType, err)
	}

	doc := &models.Document{
		ID:               uuid.New(),
		SessionID:        in.SessionID,
		DocumentType:     in.DocumentType,
		Role:             in.Role,
		OriginalFileName: in.FileName,
		StorageKey:       stored.Key,
		URL:              stored.URL,
	}
	if err := s.docRepo.Create(doc); err != nil {
		if delErr := s.storage.Delete(ctx, stored.Key); delErr != nil {
			log.Printf("⚠️ Failed to clean up %s: %v\n", stored.Key, delErr)
		}
		return nil, err
	}
	log.Printf("📥 Stored %s for session %s as %s\n", in.DocumentType, in.SessionID, stored.Key)

	data := &models.DocumentUploadData{
		URL:          stored.URL,
		Key:          stored.Key,
		DocumentType: string(in.DocumentType),
		Analysis:     "{}",
		RecommendedQuestions: models.RecommendedQuestions{
			Technical:  []models.Question{},
			Behavioral: []models.Question{},
		},
	}

	content, err := s.pdfParser.ExtractText(in.Data)
	if err != nil {
		log.Printf("⚠️ Could not read %s %s: %v\n", in.DocumentType, stored.Key, err)
		data.Validation = models.Validation{IsValid: false, Reason: "We could not read any text in this PDF."}
		s.record(doc, data)
		return data, nil
	}

	outcome, err := s.pool.Analyze(ctx, AnalysisRequest{
		DocumentType: in.DocumentType,
		Role:         in.Role,
		Text:         content.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", in.DocumentType, err)
	}

	data.Analysis = outcome.Analysis
	data.Validation = outcome.Validation
	data.RecommendedQuestions = outcome.RecommendedQuestions
	s.record(doc, data)

	log.Printf("✅ Analyzed %s for session %s (valid=%t, %d questions)\n",
		in.DocumentType, in.SessionID, data.Validation.IsValid,
		len(data.RecommendedQuestions.Technical)+len(data.RecommendedQuestions.Behavioral))
	return data, nil
}

func (s *documentService) Get(id uuid.UUID) (*models.Document, error) {
	return s.docRepo.FindByID(id)
}

func (s *documentService) ListBySession(sessionID string) ([]models.Document, error) {
	return s.docRepo.FindBySession(sessionID)
}

func (s *documentService) record(doc *models.Document, data *models.DocumentUploadData) {
	if err := s.docRepo.UpdateAnalysis(doc.ID, data.Analysis, data.Validation.IsValid, data.Validation.Reason); err != nil {
		log.Printf("⚠️ Failed to record analysis of %s: %v\n", doc.ID, err)
	}
}
