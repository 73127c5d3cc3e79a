package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/voice-screener/internal/interview"
	"alfredoptarigan/voice-screener/internal/models"
	"alfredoptarigan/voice-screener/internal/upload"
)

// ErrUploadRejected means the backend answered but refused the document.
var ErrUploadRejected = errors.New("upload rejected")

// BackendClient is the interview engine's view of the screening backend. It
// speaks the public HTTP contract even when the backend runs in-process.
type BackendClient struct {
	baseURL string
	timeout time.Duration
}

var (
	_ upload.Uploader          = (*BackendClient)(nil)
	_ interview.ApplicantStore = (*BackendClient)(nil)
)

func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BackendClient{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// Health reports whether the backend answers its liveness probe.
func (b *BackendClient) Health(ctx context.Context) error {
	a := fiber.Get(b.baseURL + "/health").Timeout(b.timeoutFor(ctx))
	code, _, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("health check failed: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return fmt.Errorf("health check failed: status %d", code)
	}
	return nil
}

// UploadDocument posts the file as multipart form data.
func (b *BackendClient) UploadDocument(ctx context.Context, req upload.Request) (*upload.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("sessionId", req.SessionID)
	args.Set("documentType", req.DocumentType)
	args.Set("role", req.Role)

	a := fiber.Post(b.baseURL + "/documents/upload").
		Timeout(b.timeoutFor(ctx)).
		FileData(&fiber.FormFile{
			Fieldname: "file",
			Name:      req.File.Name,
			Content:   req.File.Data,
		}).
		MultipartForm(args)

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to upload %s: %w", req.DocumentType, errors.Join(errs...))
	}

	var resp models.DocumentUploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode upload response (status %d): %w", code, err)
	}
	if !resp.Success || resp.Data == nil {
		reason := resp.Error
		if reason == "" {
			reason = fmt.Sprintf("status %d", code)
		}
		return nil, fmt.Errorf("%w: %s", ErrUploadRejected, reason)
	}

	return toUploadResult(resp.Data), nil
}

func toUploadResult(d *models.DocumentUploadData) *upload.Result {
	res := &upload.Result{
		URL:          d.URL,
		Key:          d.Key,
		DocumentType: d.DocumentType,
		Analysis:     d.Analysis,
		Validation: upload.Validation{
			IsValid: d.Validation.IsValid,
			Reason:  d.Validation.Reason,
		},
	}
	for _, q := range d.RecommendedQuestions.Technical {
		res.RecommendedQuestions.Technical = append(res.RecommendedQuestions.Technical,
			upload.Question{Question: q.Question, ExpectedAnswer: q.ExpectedAnswer})
	}
	for _, q := range d.RecommendedQuestions.Behavioral {
		res.RecommendedQuestions.Behavioral = append(res.RecommendedQuestions.Behavioral,
			upload.Question{Question: q.Question, ExpectedAnswer: q.ExpectedAnswer})
	}
	return res
}

func (b *BackendClient) SaveApplicant(ctx context.Context, rec interview.ApplicantRecord) error {
	return b.postJSON(ctx, "/applicants", models.ApplicantRequest{
		SessionID:       rec.SessionID,
		Name:            rec.Name,
		Role:            rec.Role,
		CareerGap:       rec.CareerGap,
		ExperienceYears: rec.ExperienceYears,
		ResumeLink:      rec.ResumeLink,
		CoverLetterLink: rec.CoverLetterLink,
		Timestamp:       rec.Timestamp,
	})
}

func (b *BackendClient) SaveResponses(ctx context.Context, sessionID string, responses []interview.Phase2Response) error {
	items := make([]models.ResponseItem, 0, len(responses))
	for _, r := range responses {
		items = append(items, models.ResponseItem{
			Question:       r.Question,
			ExpectedAnswer: r.ExpectedAnswer,
			Answer:         r.Answer,
		})
	}
	return b.postJSON(ctx, "/applicants/"+url.PathEscape(sessionID)+"/responses", models.ResponsesRequest{Responses: items})
}

func (b *BackendClient) postJSON(ctx context.Context, path string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var resp models.SuccessResponse
	code, _, errs := fiber.Post(b.baseURL + path).
		Timeout(b.timeoutFor(ctx)).
		JSON(payload).
		Struct(&resp)
	if len(errs) > 0 {
		return fmt.Errorf("POST %s failed: %w", path, errors.Join(errs...))
	}
	if code >= 300 || !resp.Success {
		return fmt.Errorf("POST %s failed: status %d %s", path, code, resp.Error)
	}
	return nil
}

// timeoutFor shortens the client timeout to the context deadline.
func (b *BackendClient) timeoutFor(ctx context.Context) time.Duration {
	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	return timeout
}
