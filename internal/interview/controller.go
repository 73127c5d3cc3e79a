// Package interview drives one screening interview: the fixed Phase 1 script,
// the consent gate and the generated Phase 2 questions. The Controller is the
// only writer of the transcript and the answers. It is not safe for concurrent
// use; a Session serialises every call onto one loop goroutine, and background
// work (timers, uploads, persistence) posts its continuation back onto it.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode"

	"alfredoptarigan/voice-screener/internal/clock"
	"alfredoptarigan/voice-screener/internal/mic"
	"alfredoptarigan/voice-screener/internal/observe"
	"alfredoptarigan/voice-screener/internal/script"
	"alfredoptarigan/voice-screener/internal/speech"
	"alfredoptarigan/voice-screener/internal/upload"
)

var (
	ErrSessionClosed    = errors.New("interview: session closed")
	ErrAlreadyStarted   = errors.New("interview: session already started")
	ErrNotAccepting     = errors.New("interview: not accepting answers right now")
	ErrEmptyAnswer      = errors.New("interview: empty answer")
	ErrUnexpectedUpload = errors.New("interview: no upload expected for this document type")
)

type Options struct {
	Countdown        time.Duration
	WatchdogInterval time.Duration
	RestartDelay     time.Duration
	MaxRestarts      int
	// AnalysisDelay separates the analysis summary from the consent request.
	AnalysisDelay time.Duration
	// ClosingDelay is the time between the final line and termination.
	ClosingDelay    time.Duration
	RedirectSeconds int
	RedirectURL     string
	UploadTimeout   time.Duration
	PersistTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Countdown <= 0 {
		o.Countdown = 5 * time.Second
	}
	if o.AnalysisDelay <= 0 {
		o.AnalysisDelay = 1500 * time.Millisecond
	}
	if o.ClosingDelay <= 0 {
		o.ClosingDelay = 8 * time.Second
	}
	if o.RedirectSeconds <= 0 {
		o.RedirectSeconds = 10
	}
	if o.RedirectURL == "" {
		o.RedirectURL = "/"
	}
	if o.UploadTimeout <= 0 {
		o.UploadTimeout = 2 * time.Minute
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 15 * time.Second
	}
	return o
}

type Deps struct {
	Script      *script.Script
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Uploader    upload.Uploader
	Applicants  ApplicantStore
	Clock       clock.Clock
	Notify      Notifier
	Metrics     *observe.Metrics
	// Post delivers f onto the session loop from any goroutine. Without it
	// continuations run inline, which is only correct on a single goroutine.
	Post func(f func())
	// Spawn runs background work; defaults to a new goroutine.
	Spawn func(f func())
}

type Controller struct {
	id     string
	deps   Deps
	opts   Options
	script *script.Script

	mic     *mic.Machine
	input   *speech.Input
	output  *speech.Output
	uploads *upload.Orchestrator

	phase      Phase
	transcript Transcript
	answers    *Answers
	cursor     int
	blocked    bool
	retryable  map[string]bool

	questions []upload.Question
	qIndex    int
	responses []Phase2Response

	timers        map[string]*loopTimer
	countdownLeft int
	countdownEnd  time.Time
	redirectLeft  int

	unsupportedShown bool
	finishing        bool
	terminated       bool
	closed           bool
	accounted        bool
	outcome          string

	queue   []func()
	running bool
}

func NewController(id string, deps Deps, opts Options) *Controller {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Spawn == nil {
		deps.Spawn = func(f func()) { go f() }
	}

	c := &Controller{
		id:        id,
		deps:      deps,
		opts:      opts.withDefaults(),
		script:    deps.Script,
		answers:   newAnswers(),
		retryable: make(map[string]bool),
		timers:    make(map[string]*loopTimer),
	}

	c.mic = mic.New(c.onMicChange)
	c.input = speech.NewInput(deps.Recognizer, c.schedule, speech.InputConfig{
		RestartDelay: c.opts.RestartDelay,
		MaxRestarts:  c.opts.MaxRestarts,
		Allow:        c.mic.CanListen,
	}, c.onRecognitionIdle, c.onRecognitionFailure)
	c.output = c.newOutput(deps.Synthesizer)
	c.uploads = upload.NewOrchestrator(deps.Uploader, upload.Config{
		SessionID: id,
		Timeout:   c.opts.UploadTimeout,
		Post:      c.post,
		Spawn:     deps.Spawn,
		Now:       deps.Clock.Now,
	}, c.onUploadSettled)

	deps.Metrics.SessionOpened(context.Background())

	return c
}

func (c *Controller) ID() string {
	return c.id
}

// Start begins the pre-interview countdown once screen sharing is confirmed.
func (c *Controller) Start(voices []speech.Voice, speechSupported bool) error {
	var err error
	c.do(func() { err = c.start(voices, speechSupported) })
	return err
}

// ClickMic applies a press of the mic button.
func (c *Controller) ClickMic() {
	c.do(c.clickMic)
}

// SubmitAnswer handles a typed or option answer. It is accepted only while
// the mic is READY.
func (c *Controller) SubmitAnswer(answer string) error {
	var err error
	c.do(func() { err = c.submitAnswer(answer) })
	return err
}

// SubmitFile answers the current upload entry, or retries a failed upload.
func (c *Controller) SubmitFile(documentType string, file upload.File) error {
	var err error
	c.do(func() { err = c.submitFile(documentType, file) })
	return err
}

func (c *Controller) Consent(accept bool) error {
	var err error
	c.do(func() { err = c.consent(accept) })
	return err
}

func (c *Controller) RecognitionResult(resultIndex int, results []speech.Result) {
	c.do(func() {
		if !c.closed {
			c.input.HandleResult(resultIndex, results)
		}
	})
}

func (c *Controller) RecognitionEnd() {
	c.do(func() {
		if !c.closed {
			c.input.HandleEnd()
		}
	})
}

func (c *Controller) RecognitionError(err error) {
	c.do(func() {
		if !c.closed {
			c.input.HandleError(err)
		}
	})
}

func (c *Controller) SynthesisStart(utteranceID string) {
	c.do(func() {
		if !c.closed {
			c.output.HandleStart(utteranceID)
		}
	})
}

func (c *Controller) SynthesisEnd(utteranceID string) {
	c.do(func() {
		if !c.closed {
			c.output.HandleEnd(utteranceID)
		}
	})
}

func (c *Controller) SynthesisError(utteranceID string, err error) {
	c.do(func() {
		if !c.closed {
			c.output.HandleError(utteranceID, err)
		}
	})
}

// End lets the candidate leave early: the closing line is spoken and
// termination follows. Repeated calls do nothing.
func (c *Controller) End() {
	c.do(func() {
		if c.closed || c.terminated {
			return
		}
		c.finish(OutcomeTerminated, c.script.Messages.Closing)
	})
}

// Terminate runs the termination sequence now. It is idempotent.
func (c *Controller) Terminate() {
	c.do(func() {
		outcome := c.outcome
		if outcome == "" {
			outcome = OutcomeTerminated
		}
		c.terminate(outcome)
	})
}

// Close tears the session down: recognition and synthesis stop, timers are
// cleared and late upload settlements become no-ops.
func (c *Controller) Close() {
	c.do(func() {
		if c.closed {
			return
		}
		c.clearTimers()
		c.input.Close()
		c.output.Close()
		c.mic.Close()
		c.uploads.Close()
		c.closed = true
		c.account(OutcomeTerminated)
		log.Printf("🧹 Session %s closed", c.id)
	})
}

// Snapshot is a read-only view of the session state.
type Snapshot struct {
	ID            string            `json:"id"`
	Phase         string            `json:"phase"`
	Mic           string            `json:"mic"`
	Cursor        int               `json:"cursor"`
	Blocked       bool              `json:"blocked"`
	Transcript    []Message         `json:"transcript"`
	Answers       Answers           `json:"answers"`
	Questions     []upload.Question `json:"questions,omitempty"`
	QuestionIndex int               `json:"questionIndex"`
	Responses     []Phase2Response  `json:"responses,omitempty"`
	Outcome       string            `json:"outcome,omitempty"`
	Ended         bool              `json:"ended"`
}

func (c *Controller) Snapshot() Snapshot {
	var s Snapshot
	c.do(func() {
		s = Snapshot{
			ID:            c.id,
			Phase:         c.phase.String(),
			Mic:           c.mic.State().String(),
			Cursor:        c.cursor,
			Blocked:       c.blocked,
			Transcript:    c.transcript.Messages(),
			Answers:       c.answers.clone(),
			Questions:     append([]upload.Question(nil), c.questions...),
			QuestionIndex: c.qIndex,
			Responses:     append([]Phase2Response(nil), c.responses...),
			Outcome:       c.outcome,
			Ended:         c.terminated,
		}
	})
	return s
}

// do runs fn after any call already in progress, so a callback that re-enters
// the controller never interleaves with the handler that triggered it.
func (c *Controller) do(fn func()) {
	c.queue = append(c.queue, fn)
	if c.running {
		return
	}
	c.running = true
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		next()
	}
	c.running = false
}

func (c *Controller) post(f func()) {
	if c.deps.Post == nil {
		c.do(f)
		return
	}
	c.deps.Post(func() { c.do(f) })
}

func (c *Controller) start(voices []speech.Voice, speechSupported bool) error {
	if c.closed || c.terminated {
		return ErrSessionClosed
	}
	if c.phase != PhaseIdle {
		return ErrAlreadyStarted
	}

	if speechSupported {
		c.output.UseVoices(voices)
	} else {
		c.input.Disable()
		c.output = c.newOutput(nil)
		c.reportUnsupported()
	}

	log.Printf("🚀 Session %s starting in %s", c.id, c.opts.Countdown)

	c.setPhase(PhaseCountdown)
	// A partial second is shown as a whole one and shortens the first tick.
	c.countdownLeft = int((c.opts.Countdown + time.Second - 1) / time.Second)
	c.countdownEnd = c.deps.Clock.Now().Add(c.opts.Countdown)
	c.tickCountdown()
	return nil
}

func (c *Controller) tickCountdown() {
	if c.countdownLeft <= 0 {
		c.beginPhaseOne()
		return
	}
	c.notify(Notification{Type: NoteCountdown, Seconds: c.countdownLeft})
	c.countdownLeft--
	next := c.countdownEnd.Sub(c.deps.Clock.Now()) - time.Duration(c.countdownLeft)*time.Second
	c.after("countdown", next, c.tickCountdown)
}

func (c *Controller) beginPhaseOne() {
	c.setPhase(PhaseOne)
	c.deps.Metrics.SessionStarted(context.Background())
	c.cursor = 0
	c.present()
}

// present shows and speaks the current Phase 1 entry, or the waiting line
// once every entry has been answered.
func (c *Controller) present() {
	e := c.script.At(c.cursor)
	if e == nil {
		c.notify(Notification{Type: NoteOptions})
		c.say(script.Render(c.script.Messages.Waiting, c.vars(nil)))
		return
	}

	text := script.Render(e.Content, c.vars(nil))
	c.appendMessage(RoleAssistant, KindPlain, text)
	c.notify(Notification{Type: NoteOptions, Options: e.Options})
	if e.Kind == script.KindUpload {
		c.setUploadControl(e.DocumentType, true)
	}
	c.speak(text)
}

func (c *Controller) clickMic() {
	if c.closed || c.terminated {
		return
	}
	if c.mic.CanAnswer() && !c.acceptingAnswers() {
		return
	}

	switch c.mic.Click() {
	case mic.ActionStartListening:
		if !c.input.Start() {
			c.mic.RecognitionStopped()
			if !c.input.Supported() {
				c.reportUnsupported()
			}
		}
	case mic.ActionSubmit:
		text := c.input.Transcript()
		c.input.Stop()
		c.handleVoiceAnswer(text)
		c.mic.AnswerHandled()
	}
}

func (c *Controller) handleVoiceAnswer(text string) {
	if strings.TrimSpace(text) == "" {
		c.repeat()
		return
	}
	if err := c.handleAnswer(text); err != nil {
		log.Printf("⚠️  Voice answer ignored: %v", err)
	}
}

func (c *Controller) submitAnswer(answer string) error {
	if c.closed || c.terminated {
		return ErrSessionClosed
	}
	if !c.mic.CanAnswer() {
		return ErrNotAccepting
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ErrEmptyAnswer
	}
	return c.handleAnswer(answer)
}

func (c *Controller) acceptingAnswers() bool {
	if c.finishing || c.terminated || c.closed {
		return false
	}
	switch c.phase {
	case PhaseOne:
		return !c.blocked && c.script.At(c.cursor) != nil
	case PhaseConsent:
		return true
	case PhaseTwo:
		return c.qIndex < len(c.questions)
	default:
		return false
	}
}

func (c *Controller) handleAnswer(text string) error {
	if !c.acceptingAnswers() {
		return ErrNotAccepting
	}

	switch c.phase {
	case PhaseOne:
		c.answerScript(text)
	case PhaseConsent:
		accept, ok := parseConsent(text)
		if !ok {
			c.repeat()
			return nil
		}
		c.appendMessage(RoleUser, KindPlain, text)
		return c.consent(accept)
	case PhaseTwo:
		c.answerGenerated(text)
	}
	return nil
}

func (c *Controller) answerScript(text string) {
	e := c.script.At(c.cursor)

	if e.Kind == script.KindUpload {
		c.setUploadControl(e.DocumentType, true)
		c.speak(script.Render(c.script.Messages.UploadPrompt,
			c.vars(script.Vars{"document": c.script.DocumentLabel(e.DocumentType)})))
		return
	}

	c.appendMessage(RoleUser, KindPlain, text)

	res := e.Validate(text)
	if !res.Valid {
		c.deps.Metrics.RecordAnswer(context.Background(), c.phase.String(), "rejected")
		if res.DeadEnd {
			c.blocked = true
			c.notify(Notification{Type: NoteOptions})
			log.Printf("⛔ Session %s stopped at gating question %q", c.id, e.ID)
		}
		c.say(script.Render(res.Message, c.vars(nil)))
		return
	}

	c.deps.Metrics.RecordAnswer(context.Background(), c.phase.String(), "accepted")
	c.answers.Values[e.ID] = res.Value
	c.cursor++
	c.present()
}

func (c *Controller) submitFile(documentType string, file upload.File) error {
	if c.closed || c.terminated {
		return ErrSessionClosed
	}
	if c.phase != PhaseOne || c.finishing {
		return ErrUnexpectedUpload
	}

	e := c.script.At(c.cursor)
	current := !c.blocked && e != nil && e.Kind == script.KindUpload && e.DocumentType == documentType
	if !current && !c.retryable[documentType] {
		return ErrUnexpectedUpload
	}

	c.appendMessage(RoleUser, KindPlain, script.Render(c.script.Messages.UploadReceived,
		c.vars(script.Vars{"file": file.Name})))
	c.answers.Links[documentType] = upload.PendingLink
	delete(c.retryable, documentType)
	c.setUploadControl(documentType, false)

	c.uploads.Submit(documentType, c.answers.Values[c.script.Applicant.Role], file)

	if current {
		c.deps.Metrics.RecordAnswer(context.Background(), c.phase.String(), "accepted")
		c.cursor++
		c.present()
	}
	return nil
}

func (c *Controller) onUploadSettled(task *upload.Task) {
	if c.closed || c.terminated {
		return
	}
	dt := task.DocumentType
	c.deps.Metrics.RecordUpload(context.Background(), dt, string(task.Status), task.Elapsed)

	if task.Status == upload.StatusFailed {
		if c.phase != PhaseOne || c.finishing {
			log.Printf("⚠️  Session %s: %s upload failed after Phase 1, not asking again: %v", c.id, dt, task.Err)
			return
		}
		c.retryable[dt] = true
		c.say(script.Render(c.script.Messages.UploadRetry,
			c.vars(script.Vars{"document": c.script.DocumentLabel(dt)})))
		c.setUploadControl(dt, true)
		return
	}

	res := task.Result
	c.answers.Links[dt] = res.URL
	c.answers.Results[dt] = res
	if res.Analysis != "" {
		a, err := upload.ParseAnalysis(res.Analysis)
		if err != nil {
			log.Printf("⚠️  Session %s: %v", c.id, err)
		} else {
			c.answers.Analyses[dt] = a
		}
	}

	if dt != c.script.AnalysisDocument || c.phase != PhaseOne || c.finishing {
		return
	}

	summary := ""
	if a := c.answers.Analyses[dt]; a != nil {
		summary = a.Summary
	}
	c.appendMessage(RoleAssistant, KindAnalysis, strings.TrimSpace(script.Render(c.script.Messages.AnalysisSummary,
		c.vars(script.Vars{"summary": summary}))))
	c.saveApplicant()

	questions := res.RecommendedQuestions.All()
	c.after("analysis", c.opts.AnalysisDelay, func() { c.beginConsent(questions) })
}

// beginConsent performs the hard reset at the phase boundary: Phase 1
// presentation state and history are dropped, not merged.
func (c *Controller) beginConsent(questions []upload.Question) {
	if c.terminated || c.finishing || c.phase != PhaseOne {
		return
	}

	c.cursor = 0
	c.blocked = false
	for dt := range c.retryable {
		c.setUploadControl(dt, false)
	}
	c.retryable = make(map[string]bool)
	c.notify(Notification{Type: NoteOptions})

	c.questions = questions
	c.qIndex = 0
	c.responses = nil

	c.transcript.Replace(nil)
	c.notify(Notification{Type: NoteTranscript, Messages: c.transcript.Messages()})

	if len(questions) == 0 {
		log.Printf("⚠️  Session %s: analysis produced no questions", c.id)
		c.finish(OutcomeCompleted, c.script.Messages.Completion)
		return
	}

	c.setPhase(PhaseConsent)
	text := script.Render(c.script.Messages.Consent,
		c.vars(script.Vars{"count": strconv.Itoa(len(questions))}))
	c.appendMessage(RoleAssistant, KindConsentRequest, text)
	c.notify(Notification{Type: NoteConsent, Visible: true, Text: text})
	c.speak(text)
}

func (c *Controller) consent(accept bool) error {
	if c.closed || c.terminated {
		return ErrSessionClosed
	}
	if c.phase != PhaseConsent || c.finishing {
		return ErrNotAccepting
	}

	c.notify(Notification{Type: NoteConsent, Visible: false})
	if !accept {
		log.Printf("👋 Session %s declined Phase 2", c.id)
		c.finish(OutcomeDeclined, c.script.Messages.Decline)
		return nil
	}

	c.setPhase(PhaseTwo)
	c.presentQuestion()
	return nil
}

func (c *Controller) presentQuestion() {
	if c.qIndex >= len(c.questions) {
		c.saveResponses()
		c.finish(OutcomeCompleted, c.script.Messages.Completion)
		return
	}
	c.say(c.questions[c.qIndex].Question)
}

func (c *Controller) answerGenerated(text string) {
	q := c.questions[c.qIndex]
	c.appendMessage(RoleUser, KindPlain, text)
	c.responses = append(c.responses, Phase2Response{
		Question:       q.Question,
		ExpectedAnswer: q.ExpectedAnswer,
		Answer:         text,
	})
	c.deps.Metrics.RecordAnswer(context.Background(), c.phase.String(), "accepted")
	c.qIndex++
	c.presentQuestion()
}

// finish speaks the final line and schedules termination.
func (c *Controller) finish(outcome, tmpl string) {
	if c.finishing || c.terminated {
		return
	}
	c.finishing = true
	c.outcome = outcome
	c.notify(Notification{Type: NoteOptions})
	c.say(script.Render(tmpl, c.vars(nil)))
	c.after("terminate", c.opts.ClosingDelay, func() { c.terminate(outcome) })
}

func (c *Controller) terminate(outcome string) {
	if c.terminated || c.closed {
		return
	}
	c.terminated = true
	c.outcome = outcome

	c.clearTimers()
	c.input.Stop()
	c.output.Cancel()
	c.mic.Close()
	c.uploads.Close()

	c.setPhase(PhaseEnded)
	c.notify(Notification{Type: NoteControls, Visible: false})
	c.notify(Notification{Type: NoteReleaseMedia})
	c.notify(Notification{Type: NoteEnded, Outcome: outcome})
	c.account(outcome)

	log.Printf("🏁 Session %s ended (%s)", c.id, outcome)

	c.redirectLeft = c.opts.RedirectSeconds
	c.tickRedirect()
}

func (c *Controller) tickRedirect() {
	if c.redirectLeft <= 0 {
		c.notify(Notification{Type: NoteRedirect, URL: c.opts.RedirectURL})
		return
	}
	c.notify(Notification{Type: NoteRedirect, Seconds: c.redirectLeft})
	c.redirectLeft--
	c.after("redirect", time.Second, c.tickRedirect)
}

func (c *Controller) account(outcome string) {
	if c.accounted {
		return
	}
	c.accounted = true
	c.deps.Metrics.SessionClosed(context.Background(), outcome)
}

// repeat re-speaks the last interviewer line after a failed turn. Nothing
// is added to the transcript.
func (c *Controller) repeat() {
	if c.terminated || c.closed {
		return
	}
	text := script.Render(c.script.Messages.RepeatPrefix, c.vars(nil))
	if last, ok := c.transcript.LastAssistant(); ok {
		text += " " + last.Content
	}
	c.speak(text)
}

func (c *Controller) saveApplicant() {
	if c.deps.Applicants == nil {
		return
	}
	fields := c.script.Applicant
	rec := ApplicantRecord{
		SessionID:       c.id,
		Name:            c.answers.Values[c.script.NameEntry],
		Role:            c.answers.Values[fields.Role],
		CareerGap:       c.answers.Values[fields.CareerGap],
		ExperienceYears: c.answers.Values[fields.ExperienceYears],
		ResumeLink:      c.answers.Links[upload.DocumentResume],
		CoverLetterLink: c.answers.Links[upload.DocumentCoverLetter],
		Timestamp:       c.deps.Clock.Now(),
	}
	c.persist("applicant", func(ctx context.Context) error {
		return c.deps.Applicants.SaveApplicant(ctx, rec)
	})
}

func (c *Controller) saveResponses() {
	if c.deps.Applicants == nil || len(c.responses) == 0 {
		return
	}
	responses := append([]Phase2Response(nil), c.responses...)
	c.persist("responses", func(ctx context.Context) error {
		return c.deps.Applicants.SaveResponses(ctx, c.id, responses)
	})
}

// persist runs a best-effort backend write in the background and surfaces a
// failure as a warning.
func (c *Controller) persist(what string, fn func(ctx context.Context) error) {
	timeout := c.opts.PersistTimeout
	c.deps.Spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Printf("⚠️  Failed to save %s for session %s: %v", what, c.id, err)
			c.post(func() {
				if c.closed {
					return
				}
				c.notify(Notification{Type: NoteWarning, Text: fmt.Sprintf("We could not save your %s yet; the interview will continue.", what)})
			})
			return
		}
		log.Printf("✅ Saved %s for session %s", what, c.id)
	})
}

func (c *Controller) say(text string) {
	c.appendMessage(RoleAssistant, KindPlain, text)
	c.speak(text)
}

func (c *Controller) speak(text string) {
	if c.closed || c.terminated || !c.mic.CanSpeak() {
		return
	}
	c.output.Speak(text)
}

func (c *Controller) newOutput(synth speech.Synthesizer) *speech.Output {
	return speech.NewOutput(synth, c.schedule, speech.OutputConfig{
		WatchdogInterval: c.opts.WatchdogInterval,
	}, speech.OutputHooks{
		Before: c.beforeSpeak,
		After:  c.afterSpeak,
	})
}

func (c *Controller) beforeSpeak() {
	c.input.Stop()
	c.notify(Notification{Type: NoteControls, Visible: false})
	c.mic.ForceSpeaking()
}

func (c *Controller) afterSpeak() {
	c.mic.SpeakingDone()
	if !c.terminated && !c.closed {
		c.notify(Notification{Type: NoteControls, Visible: true})
	}
}

func (c *Controller) onMicChange(from, to mic.State) {
	c.notify(Notification{Type: NoteMicState, Mic: to.String()})
}

func (c *Controller) onRecognitionIdle() {
	c.mic.RecognitionStopped()
}

func (c *Controller) onRecognitionFailure() {
	c.repeat()
}

func (c *Controller) reportUnsupported() {
	if c.unsupportedShown {
		return
	}
	c.unsupportedShown = true
	c.notify(Notification{Type: NoteError, Text: script.Render(c.script.Messages.Unsupported, c.vars(nil))})
}

func (c *Controller) setPhase(p Phase) {
	c.phase = p
	c.notify(Notification{Type: NotePhase, Phase: p.String()})
	c.deps.Metrics.RecordPhase(context.Background(), p.String())
}

func (c *Controller) setUploadControl(documentType string, visible bool) {
	c.notify(Notification{Type: NoteUploadControl, DocumentType: documentType, Visible: visible})
}

func (c *Controller) appendMessage(role Role, kind Kind, content string) {
	m := c.transcript.Append(role, kind, content, c.deps.Clock.Now())
	c.notify(Notification{Type: NoteMessage, Message: &m})
}

func (c *Controller) vars(extra script.Vars) script.Vars {
	v := script.Vars{"name": c.answers.Values[c.script.NameEntry]}
	for k, val := range extra {
		v[k] = val
	}
	return v
}

func (c *Controller) notify(n Notification) {
	if c.closed || c.deps.Notify == nil {
		return
	}
	c.deps.Notify(n)
}

var (
	yesWords = map[string]bool{
		"yes": true, "yeah": true, "yep": true, "sure": true, "ok": true,
		"okay": true, "continue": true, "accept": true, "ready": true,
	}
	noWords = map[string]bool{
		"no": true, "nope": true, "decline": true, "later": true, "stop": true,
	}
	// Phrases are checked before single words; "why not" and "no problem"
	// are agreement even though they contain a refusal word.
	yesPhrases = []string{"why not", "no problem", "not a problem", "no worries", "of course", "go ahead"}
	noPhrases  = []string{"not now", "not today", "not really", "not interested", "not ready"}

	// Hedges are neither and get the prompt again.
	unsurePhrases = []string{"not sure", "don't know", "dont know", "no idea"}
)

// parseConsent reads a spoken yes or no. Known phrases win, then the first
// decisive word. Anything else is not an answer and the prompt is repeated.
func parseConsent(text string) (accept, ok bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	joined := " " + strings.Join(words, " ") + " "

	for _, p := range unsurePhrases {
		if strings.Contains(joined, " "+p+" ") {
			return false, false
		}
	}

	for _, p := range yesPhrases {
		if strings.Contains(joined, " "+p+" ") {
			return true, true
		}
	}
	for _, p := range noPhrases {
		if strings.Contains(joined, " "+p+" ") {
			return false, true
		}
	}
	for _, w := range words {
		w = strings.Trim(w, "'")
		if noWords[w] {
			return false, true
		}
		if yesWords[w] {
			return true, true
		}
	}
	return false, false
}
