package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"alfredoptarigan/voice-screener/internal/bridge"
	"alfredoptarigan/voice-screener/internal/clock"
	"alfredoptarigan/voice-screener/internal/interview"
	"alfredoptarigan/voice-screener/internal/observe"
	"alfredoptarigan/voice-screener/internal/script"
	"alfredoptarigan/voice-screener/internal/speech"
	"alfredoptarigan/voice-screener/internal/upload"
)

// SessionDeps are shared by every interview the host runs.
type SessionDeps struct {
	Script     *script.Script
	Uploader   upload.Uploader
	Applicants interview.ApplicantStore
	Clock      clock.Clock
	Metrics    *observe.Metrics
}

// SessionHandler hosts interview sessions for browsers acting as speech
// terminals.
type SessionHandler struct {
	registry    *interview.Registry
	hub         *bridge.Hub
	deps        SessionDeps
	maxFileSize int64
	keepAlive   time.Duration
}

func NewSessionHandler(registry *interview.Registry, hub *bridge.Hub, deps SessionDeps, maxFileSize int64) *SessionHandler {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	return &SessionHandler{
		registry:    registry,
		hub:         hub,
		deps:        deps,
		maxFileSize: maxFileSize,
		keepAlive:   15 * time.Second,
	}
}

// Register mounts the session routes on r.
func (h *SessionHandler) Register(r fiber.Router) {
	r.Post("/sessions", h.HandleCreate)
	r.Get("/sessions/:id", h.HandleSnapshot)
	r.Delete("/sessions/:id", h.HandleDelete)
	r.Get("/sessions/:id/events", h.HandleEvents)
	r.Post("/sessions/:id/start", h.HandleStart)
	r.Post("/sessions/:id/mic", h.HandleMic)
	r.Post("/sessions/:id/answer", h.HandleAnswer)
	r.Post("/sessions/:id/documents", h.HandleDocument)
	r.Post("/sessions/:id/consent", h.HandleConsent)
	r.Post("/sessions/:id/speech", h.HandleSpeech)
}

// HandleCreate handles POST /sessions
func (h *SessionHandler) HandleCreate(c *fiber.Ctx) error {
	s := h.registry.Create(func(id string) interview.Deps {
		term := bridge.NewTerminal(h.hub.Open(id))
		return interview.Deps{
			Script:      h.deps.Script,
			Recognizer:  term.Recognizer(),
			Synthesizer: term.Synthesizer(),
			Uploader:    h.deps.Uploader,
			Applicants:  h.deps.Applicants,
			Clock:       h.deps.Clock,
			Notify:      term.Notify,
			Metrics:     h.deps.Metrics,
		}
	})

	go func() {
		<-s.Done()
		h.hub.Release(s.ID())
	}()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":     s.ID(),
		"events": c.BaseURL() + c.Path() + "/" + s.ID() + "/events",
	})
}

// HandleSnapshot handles GET /sessions/:id
func (h *SessionHandler) HandleSnapshot(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	snap, err := s.Snapshot(c.UserContext())
	if err != nil {
		return sessionError(c, err)
	}
	return c.JSON(snap)
}

// HandleDelete handles DELETE /sessions/:id, sent on page unload.
func (h *SessionHandler) HandleDelete(c *fiber.Ctx) error {
	if !h.registry.Remove(c.Params("id")) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type startRequest struct {
	Voices          []speech.Voice `json:"voices"`
	SpeechSupported *bool          `json:"speechSupported"`
}

// HandleStart handles POST /sessions/:id/start
func (h *SessionHandler) HandleStart(c *fiber.Ctx) error {
	var req startRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request payload"})
		}
	}
	supported := req.SpeechSupported == nil || *req.SpeechSupported

	return h.call(c, func(ctrl *interview.Controller) error {
		return ctrl.Start(req.Voices, supported)
	})
}

// HandleMic handles POST /sessions/:id/mic
func (h *SessionHandler) HandleMic(c *fiber.Ctx) error {
	return h.call(c, func(ctrl *interview.Controller) error {
		ctrl.ClickMic()
		return nil
	})
}

// HandleAnswer handles POST /sessions/:id/answer
func (h *SessionHandler) HandleAnswer(c *fiber.Ctx) error {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request payload"})
	}

	return h.call(c, func(ctrl *interview.Controller) error {
		return ctrl.SubmitAnswer(req.Answer)
	})
}

// HandleDocument handles POST /sessions/:id/documents
func (h *SessionHandler) HandleDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("file too large. Max size: %d bytes", h.maxFileSize),
		})
	}

	src, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to open uploaded file"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read uploaded file"})
	}

	file := upload.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	documentType := c.FormValue("documentType")

	return h.call(c, func(ctrl *interview.Controller) error {
		return ctrl.SubmitFile(documentType, file)
	})
}

// HandleConsent handles POST /sessions/:id/consent
func (h *SessionHandler) HandleConsent(c *fiber.Ctx) error {
	var req struct {
		Accept *bool `json:"accept"`
	}
	if err := c.BodyParser(&req); err != nil || req.Accept == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "accept is required"})
	}

	return h.call(c, func(ctrl *interview.Controller) error {
		return ctrl.Consent(*req.Accept)
	})
}

type speechEvent struct {
	Type        string          `json:"type"`
	ResultIndex int             `json:"resultIndex"`
	Results     []speech.Result `json:"results"`
	Error       string          `json:"error"`
	UtteranceID string          `json:"utteranceId"`
}

// HandleSpeech handles POST /sessions/:id/speech, the platform speech events.
func (h *SessionHandler) HandleSpeech(c *fiber.Ctx) error {
	var ev speechEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request payload"})
	}

	var apply func(ctrl *interview.Controller)
	switch ev.Type {
	case "recognition.result":
		apply = func(ctrl *interview.Controller) { ctrl.RecognitionResult(ev.ResultIndex, ev.Results) }
	case "recognition.end":
		apply = func(ctrl *interview.Controller) { ctrl.RecognitionEnd() }
	case "recognition.error":
		apply = func(ctrl *interview.Controller) { ctrl.RecognitionError(platformError(ev.Error)) }
	case "synthesis.start":
		apply = func(ctrl *interview.Controller) { ctrl.SynthesisStart(ev.UtteranceID) }
	case "synthesis.end":
		apply = func(ctrl *interview.Controller) { ctrl.SynthesisEnd(ev.UtteranceID) }
	case "synthesis.error":
		apply = func(ctrl *interview.Controller) { ctrl.SynthesisError(ev.UtteranceID, platformError(ev.Error)) }
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown speech event " + strconv.Quote(ev.Type)})
	}

	return h.call(c, func(ctrl *interview.Controller) error {
		apply(ctrl)
		return nil
	})
}

func platformError(code string) error {
	if code == "" {
		code = "unknown"
	}
	return errors.New(code)
}

// HandleEvents handles GET /sessions/:id/events as a Server-Sent Events
// stream. Clients resume with Last-Event-ID.
func (h *SessionHandler) HandleEvents(c *fiber.Ctx) error {
	id := strings.Clone(c.Params("id"))
	out, ok := h.hub.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	lastID, _ := strconv.ParseUint(c.Get("Last-Event-ID", c.Query("lastEventId")), 10, 64)
	keepAlive := h.keepAlive

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		missed, events, cancel := out.Subscribe(lastID)
		defer cancel()

		for _, e := range missed {
			if err := e.WriteSSE(w); err != nil {
				return
			}
		}
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case e, open := <-events:
				if !open {
					return
				}
				if err := e.WriteSSE(w); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				log.Printf("📴 Event stream of %s closed: %v", id, err)
				return
			}
		}
	}))

	return nil
}

func (h *SessionHandler) session(c *fiber.Ctx) (*interview.Session, error) {
	s, ok := h.registry.Get(c.Params("id"))
	if !ok {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return s, nil
}

func (h *SessionHandler) call(c *fiber.Ctx, fn func(ctrl *interview.Controller) error) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	if err := s.Call(c.UserContext(), fn); err != nil {
		return sessionError(c, err)
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func sessionError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, interview.ErrSessionClosed):
		status = fiber.StatusGone
	case errors.Is(err, interview.ErrAlreadyStarted),
		errors.Is(err, interview.ErrNotAccepting),
		errors.Is(err, interview.ErrUnexpectedUpload):
		status = fiber.StatusConflict
	case errors.Is(err, interview.ErrEmptyAnswer):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
