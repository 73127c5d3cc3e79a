package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/voice-screener/internal/bridge"
	"alfredoptarigan/voice-screener/internal/clock"
	"alfredoptarigan/voice-screener/internal/interview"
	"alfredoptarigan/voice-screener/internal/models"
	"alfredoptarigan/voice-screener/internal/repositories"
	"alfredoptarigan/voice-screener/internal/script"
	"alfredoptarigan/voice-screener/internal/services"
)

func jsonRequest(method, url string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, url, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, url string, fields map[string]string, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type fakeDocuments struct {
	data   *models.DocumentUploadData
	err    error
	got    services.DocumentUpload
	stored []models.Document
}

func (f *fakeDocuments) Process(ctx context.Context, in services.DocumentUpload) (*models.DocumentUploadData, error) {
	f.got = in
	return f.data, f.err
}

func (f *fakeDocuments) Get(id uuid.UUID) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.stored {
		if f.stored[i].ID == id {
			return &f.stored[i], nil
		}
	}
	return nil, repositories.ErrDocumentNotFound
}

func (f *fakeDocuments) ListBySession(sessionID string) ([]models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	var docs []models.Document
	for _, d := range f.stored {
		if d.SessionID == sessionID {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func TestDocumentHandler_Upload(t *testing.T) {
	docs := &fakeDocuments{data: &models.DocumentUploadData{
		URL:        "http://files/s1/cv.pdf",
		Analysis:   `{"summary":"ok"}`,
		Validation: models.Validation{IsValid: true},
	}}
	app := fiber.New()
	app.Post("/documents/upload", NewDocumentHandler(docs, 1024).HandleUpload)

	req := multipartRequest(t, "/documents/upload", map[string]string{
		"sessionId": "s1", "documentType": "resume", "role": "Software Engineer",
	}, "cv.pdf", []byte("%PDF"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decode[models.DocumentUploadResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, "http://files/s1/cv.pdf", body.Data.URL)

	assert.Equal(t, "s1", docs.got.SessionID)
	assert.Equal(t, models.DocumentResume, docs.got.DocumentType)
	assert.Equal(t, "Software Engineer", docs.got.Role)
	assert.Equal(t, []byte("%PDF"), docs.got.Data)
}

func TestDocumentHandler_Lookup(t *testing.T) {
	resume := models.Document{ID: uuid.New(), SessionID: "s1", DocumentType: models.DocumentResume, URL: "http://files/s1/cv.pdf"}
	docs := &fakeDocuments{stored: []models.Document{resume}}
	h := NewDocumentHandler(docs, 1024)
	app := fiber.New()
	app.Get("/documents", h.HandleList)
	app.Get("/documents/:id", h.HandleGet)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/documents/"+resume.ID.String(), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	got := decode[models.Document](t, resp)
	assert.Equal(t, resume.URL, got.URL)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/documents?sessionId=s1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[struct {
		Documents []models.Document `json:"documents"`
	}](t, resp)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, resume.ID, list.Documents[0].ID)

	for url, status := range map[string]int{
		"/documents/" + uuid.NewString(): fiber.StatusNotFound,
		"/documents/not-a-uuid":          fiber.StatusBadRequest,
		"/documents":                     fiber.StatusBadRequest,
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode, url)
	}
}

func TestDocumentHandler_Failures(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		file     string
		size     int
		docs     *fakeDocuments
		status   int
		contains string
	}{
		{"missing file", map[string]string{"documentType": "resume"}, "", 0, &fakeDocuments{}, 400, "file is required"},
		{"bad type", map[string]string{"documentType": "photo"}, "a.pdf", 4, &fakeDocuments{}, 400, "documentType"},
		{"too large", map[string]string{"documentType": "resume"}, "a.pdf", 2048, &fakeDocuments{}, 413, "too large"},
		{"not pdf", map[string]string{"documentType": "resume"}, "a.png", 4, &fakeDocuments{err: services.ErrNotPDF}, 400, "PDF"},
		{"analysis down", map[string]string{"documentType": "resume"}, "a.pdf", 4, &fakeDocuments{err: errors.New("boom")}, 500, "failed to process"},
		{"invalid document", map[string]string{"documentType": "coverLetter"}, "a.pdf", 4, &fakeDocuments{data: &models.DocumentUploadData{
			Validation: models.Validation{IsValid: false, Reason: "not a cover letter"},
		}}, 422, "not a cover letter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/documents/upload", NewDocumentHandler(tt.docs, 1024).HandleUpload)

			resp, err := app.Test(multipartRequest(t, "/documents/upload", tt.fields, tt.file, make([]byte, tt.size)))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decode[models.DocumentUploadResponse](t, resp)
			assert.False(t, body.Success)
			assert.Contains(t, body.Error, tt.contains)
		})
	}
}

type fakeApplicants struct {
	saved     *models.Applicant
	responses []models.InterviewResponse
	sessionID string
	err       error
}

func (f *fakeApplicants) Upsert(a *models.Applicant) error {
	f.saved = a
	return f.err
}

func (f *fakeApplicants) FindBySessionID(sessionID string) (*models.Applicant, error) {
	if f.saved == nil || f.saved.SessionID != sessionID {
		return nil, repositories.ErrApplicantNotFound
	}
	return f.saved, nil
}

func (f *fakeApplicants) ReplaceResponses(sessionID string, responses []models.InterviewResponse) error {
	f.sessionID = sessionID
	f.responses = responses
	return f.err
}

func TestApplicantHandler(t *testing.T) {
	repo := &fakeApplicants{}
	h := NewApplicantHandler(repo)
	app := fiber.New()
	app.Post("/applicants", h.HandleCreate)
	app.Post("/applicants/:sessionId/responses", h.HandleResponses)
	app.Get("/applicants/:sessionId", h.HandleGet)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/applicants", models.ApplicantRequest{
		SessionID: "s1", Name: "Asha", Role: "Software Engineer", ResumeLink: "pending",
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, decode[models.SuccessResponse](t, resp).Success)
	require.NotNil(t, repo.saved)
	assert.Equal(t, "Asha", repo.saved.Name)
	assert.False(t, repo.saved.SubmittedAt.IsZero())

	resp, err = app.Test(jsonRequest(http.MethodPost, "/applicants/s1/responses", models.ResponsesRequest{
		Responses: []models.ResponseItem{{Question: "Q1", ExpectedAnswer: "E1", Answer: "A1"}},
	}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "s1", repo.sessionID)
	require.Len(t, repo.responses, 1)
	assert.Equal(t, "A1", repo.responses[0].Answer)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/applicants/s1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/applicants/nobody", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/applicants", models.ApplicantRequest{Name: "No session"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	repo.err = errors.New("db down")
	resp, err = app.Test(jsonRequest(http.MethodPost, "/applicants", models.ApplicantRequest{SessionID: "s2"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.False(t, decode[models.SuccessResponse](t, resp).Success)
}

func TestHandleHealth(t *testing.T) {
	app := fiber.New()
	app.Get("/health", HandleHealth(func() int { return 2 }))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	body := decode[models.HealthResponse](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, 2, body.Sessions)
}

type sessionHarness struct {
	app   *fiber.App
	clock *clock.Fake
	hub   *bridge.Hub
	reg   *interview.Registry
}

func newSessionHarness(t *testing.T) *sessionHarness {
	t.Helper()
	s, err := script.Default()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fc := clock.NewFake(time.Unix(0, 0))
	reg := interview.NewRegistry(ctx, interview.Options{Countdown: time.Second})
	t.Cleanup(reg.CloseAll)
	hub := bridge.NewHub(0, time.Hour)

	h := NewSessionHandler(reg, hub, SessionDeps{Script: s, Clock: fc}, 1024)
	app := fiber.New()
	h.Register(app)

	return &sessionHarness{app: app, clock: fc, hub: hub, reg: reg}
}

func (h *sessionHarness) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	return resp
}

func (h *sessionHarness) snapshot(t *testing.T, id string) interview.Snapshot {
	t.Helper()
	resp := h.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return decode[interview.Snapshot](t, resp)
}

func TestSessionHandler_InterviewOverHTTP(t *testing.T) {
	h := newSessionHarness(t)

	resp := h.do(t, jsonRequest(http.MethodPost, "/sessions", nil))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode[map[string]string](t, resp)
	id := created["id"]
	require.NotEmpty(t, id)
	assert.True(t, strings.HasSuffix(created["events"], "/sessions/"+id+"/events"))
	assert.Equal(t, "IDLE", h.snapshot(t, id).Phase)

	resp = h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/start", map[string]any{"speechSupported": false}))
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	resp = h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/start", nil))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/answer", map[string]string{"answer": "Asha"}))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	h.clock.Advance(time.Second)
	snap := h.snapshot(t, id)
	assert.Equal(t, "PHASE1_ACTIVE", snap.Phase)
	assert.Equal(t, "READY", snap.Mic)

	resp = h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/answer", map[string]string{"answer": "Asha"}))
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, h.snapshot(t, id).Cursor)

	resp = h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/answer", map[string]string{"answer": "  "}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/speech", map[string]any{"type": "recognition.result", "resultIndex": 0, "results": []map[string]any{{"transcript": "hi", "isFinal": true}}}))
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	resp = h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/speech", map[string]string{"type": "telepathy"}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/consent", map[string]any{}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = h.do(t, multipartRequest(t, "/sessions/"+id+"/documents", map[string]string{"documentType": "resume"}, "cv.pdf", []byte("%PDF")))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = h.do(t, httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = h.do(t, httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/mic", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, h.reg.Len())
}

func TestSessionHandler_EventsReplayBacklog(t *testing.T) {
	h := newSessionHarness(t)

	created := decode[map[string]string](t, h.do(t, jsonRequest(http.MethodPost, "/sessions", nil)))
	id := created["id"]
	h.do(t, jsonRequest(http.MethodPost, "/sessions/"+id+"/start", map[string]any{"speechSupported": false}))
	h.clock.Advance(time.Second)
	h.snapshot(t, id)

	h.do(t, httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil))
	h.hub.Release(id)

	resp := h.do(t, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/events", nil))
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "event: countdown")
	assert.Contains(t, text, "event: error")
	assert.Contains(t, text, "event: phase")

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/events", nil)
	req.Header.Set("Last-Event-ID", "1000000")
	resp = h.do(t, req)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "event:")

	resp = h.do(t, httptest.NewRequest(http.MethodGet, "/sessions/unknown/events", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
