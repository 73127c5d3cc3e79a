package speech

import (
	"errors"
	"log"
	"strings"
	"time"

	"alfredoptarigan/voice-screener/internal/clock"
)

type InputConfig struct {
	// RestartDelay debounces automatic restarts after the platform ends a
	// session the caller still wants.
	RestartDelay time.Duration
	// MaxRestarts bounds consecutive restarts without any result.
	MaxRestarts int
	// Allow reports whether the mic currently permits recognition. Nil
	// always allows.
	Allow func() bool
}

// Input never decides when to listen; the controller starts and stops it in
// response to mic transitions.
type Input struct {
	rec      Recognizer
	schedule Scheduler
	cfg      InputConfig

	supported bool
	active    bool
	final     string
	interim   string
	restarts  int
	restart   clock.Timer

	// onIdle runs when recognition ends and nobody wants it any more.
	onIdle func()
	// onFailure runs when recognition errors or keeps ending unexpectedly.
	onFailure func()
}

func NewInput(rec Recognizer, schedule Scheduler, cfg InputConfig, onIdle, onFailure func()) *Input {
	if cfg.RestartDelay <= 0 {
		cfg.RestartDelay = 300 * time.Millisecond
	}
	if cfg.MaxRestarts <= 0 {
		cfg.MaxRestarts = 3
	}
	return &Input{
		rec:       rec,
		schedule:  schedule,
		cfg:       cfg,
		supported: rec != nil,
		onIdle:    onIdle,
		onFailure: onFailure,
	}
}

func (in *Input) Supported() bool {
	return in.supported
}

// Disable marks recognition as unavailable on this client.
func (in *Input) Disable() {
	in.Stop()
	in.supported = false
}

func (in *Input) Active() bool {
	return in.active
}

// Start begins a fresh recognition session and clears both buffers. It logs
// and reports false when already active or unsupported.
func (in *Input) Start() bool {
	if in.active {
		log.Println("⚠️  Speech recognition already active")
		return false
	}
	if !in.supported {
		log.Println("⚠️  Speech recognition is not supported on this client")
		return false
	}
	if !in.allowed() {
		log.Println("⚠️  Speech recognition refused: mic is not listening")
		return false
	}

	if err := in.rec.Start(Lang); err != nil {
		if errors.Is(err, ErrUnsupported) {
			in.supported = false
		}
		log.Printf("❌ Failed to start speech recognition: %v", err)
		return false
	}

	in.active = true
	in.final = ""
	in.interim = ""
	in.restarts = 0
	return true
}

// Stop is idempotent.
func (in *Input) Stop() {
	in.cancelRestart()
	if !in.active {
		return
	}
	in.active = false
	in.rec.Stop()
}

// Transcript is everything heard so far, final text first.
func (in *Input) Transcript() string {
	return strings.TrimSpace(strings.Join(strings.Fields(in.final+" "+in.interim), " "))
}

// HandleResult scans a result batch from resultIndex. The first final result
// wins and ends the scan; otherwise the last interim replaces the interim buffer.
func (in *Input) HandleResult(resultIndex int, results []Result) {
	if !in.active {
		return
	}
	if resultIndex < 0 {
		resultIndex = 0
	}
	in.restarts = 0

	var interim string
	seenInterim := false
	for i := resultIndex; i < len(results); i++ {
		r := results[i]
		if r.IsFinal {
			in.final = strings.TrimSpace(in.final + " " + strings.TrimSpace(r.Transcript))
			in.interim = ""
			return
		}
		interim = r.Transcript
		seenInterim = true
	}
	if seenInterim {
		in.interim = strings.TrimSpace(interim)
	}
}

// HandleEnd restarts recognition after a debounce while the caller still
// wants to listen; otherwise the turn goes idle.
func (in *Input) HandleEnd() {
	if !in.active {
		in.onIdle()
		return
	}

	in.restarts++
	if in.restarts > in.cfg.MaxRestarts {
		log.Printf("⚠️  Speech recognition ended %d times in a row, giving up", in.restarts-1)
		in.active = false
		in.onIdle()
		in.onFailure()
		return
	}

	in.cancelRestart()
	in.restart = in.schedule(in.cfg.RestartDelay, func() {
		in.restart = nil
		if !in.active {
			return
		}
		if !in.allowed() {
			in.active = false
			return
		}
		if err := in.rec.Start(Lang); err != nil {
			log.Printf("❌ Failed to restart speech recognition: %v", err)
			in.active = false
			in.onIdle()
			in.onFailure()
		}
	})
}

// HandleError ends the turn and asks for the last question to be repeated.
// Errors after Stop (for example an abort caused by Stop itself) are ignored.
func (in *Input) HandleError(err error) {
	if !in.active {
		return
	}
	log.Printf("❌ Speech recognition error: %v", err)
	in.cancelRestart()
	in.active = false
	in.onIdle()
	in.onFailure()
}

func (in *Input) Close() {
	in.Stop()
	in.onIdle = func() {}
	in.onFailure = func() {}
}

func (in *Input) allowed() bool {
	return in.cfg.Allow == nil || in.cfg.Allow()
}

func (in *Input) cancelRestart() {
	if in.restart != nil {
		in.restart.Stop()
		in.restart = nil
	}
}
