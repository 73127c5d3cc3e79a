package speech

import (
	"log"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/voice-screener/internal/clock"
)

type OutputConfig struct {
	// WatchdogInterval is how often a running utterance is paused and resumed
	// so long speech does not stall on some platforms.
	WatchdogInterval time.Duration
}

// OutputHooks connect Output to the rest of the session.
type OutputHooks struct {
	// Before runs ahead of every utterance: stop input, hide answer
	// controls, force the mic into SPEAKING.
	Before func()
	// After runs once the utterance ends or fails: mic READY, reveal
	// answer controls.
	After func()
}

// Output speaks exactly one utterance at a time. A new Speak always
// interrupts the current one; nothing is queued.
type Output struct {
	synth    Synthesizer
	schedule Scheduler
	cfg      OutputConfig
	hooks    OutputHooks

	voice    *Voice
	current  string
	watchdog clock.Timer
	newID    func() string
}

func NewOutput(synth Synthesizer, schedule Scheduler, cfg OutputConfig, hooks OutputHooks) *Output {
	if cfg.WatchdogInterval <= 0 {
		cfg.WatchdogInterval = 5 * time.Second
	}
	if hooks.Before == nil {
		hooks.Before = func() {}
	}
	if hooks.After == nil {
		hooks.After = func() {}
	}
	return &Output{
		synth:    synth,
		schedule: schedule,
		cfg:      cfg,
		hooks:    hooks,
		newID:    func() string { return uuid.NewString() },
	}
}

// UseVoices picks the session voice from what the client platform offers.
func (o *Output) UseVoices(voices []Voice) {
	o.voice = SelectVoice(voices)
	if o.voice != nil {
		log.Printf("🔊 Using voice %q (%s)", o.voice.Name, o.voice.Lang)
	}
}

func (o *Output) Voice() *Voice {
	return o.voice
}

// Current returns the in-flight utterance ID, empty when silent.
func (o *Output) Current() string {
	return o.current
}

func (o *Output) Speaking() bool {
	return o.current != ""
}

// Speak interrupts whatever is playing and starts a new utterance. It
// returns the utterance ID, empty when nothing was spoken.
func (o *Output) Speak(text string) string {
	o.interrupt()
	o.hooks.Before()

	text = Sanitize(text)
	if text == "" || o.synth == nil {
		o.hooks.After()
		return ""
	}

	u := Utterance{
		ID:     o.newID(),
		Text:   text,
		Voice:  o.voice,
		Rate:   DefaultRate,
		Pitch:  DefaultPitch,
		Volume: DefaultVolume,
	}

	o.current = u.ID
	if err := o.synth.Speak(u); err != nil {
		log.Printf("❌ Speech synthesis failed to start: %v", err)
		o.current = ""
		o.hooks.After()
		return ""
	}

	o.armWatchdog(u.ID)
	return u.ID
}

// HandleStart is informational; the utterance is already current.
func (o *Output) HandleStart(id string) {
	if id != o.current {
		return
	}
	log.Printf("🔊 Utterance %s started", id)
}

// HandleEnd finishes the current utterance. Events for interrupted
// utterances are ignored.
func (o *Output) HandleEnd(id string) {
	if id == "" || id != o.current {
		return
	}
	o.finish()
}

func (o *Output) HandleError(id string, err error) {
	if id == "" || id != o.current {
		return
	}
	log.Printf("❌ Speech synthesis error: %v", err)
	o.finish()
}

// Cancel stops the current utterance without running the After hook.
func (o *Output) Cancel() {
	o.interrupt()
}

func (o *Output) Close() {
	o.interrupt()
	o.hooks = OutputHooks{Before: func() {}, After: func() {}}
}

func (o *Output) interrupt() {
	o.stopWatchdog()
	if o.current == "" {
		return
	}
	o.current = ""
	if o.synth != nil {
		o.synth.Cancel()
	}
}

func (o *Output) finish() {
	o.stopWatchdog()
	o.current = ""
	o.hooks.After()
}

func (o *Output) armWatchdog(id string) {
	o.watchdog = o.schedule(o.cfg.WatchdogInterval, func() {
		o.watchdog = nil
		if o.current != id {
			return
		}
		o.synth.Pause()
		o.synth.Resume()
		o.armWatchdog(id)
	})
}

func (o *Output) stopWatchdog() {
	if o.watchdog != nil {
		o.watchdog.Stop()
		o.watchdog = nil
	}
}
