// Package speech contains the two speech subsystems of an interview session:
// Input wraps a continuous recognition session and accumulates transcripts,
// Output speaks one utterance at a time with a keep-alive watchdog.
//
// Both sit on top of platform interfaces (Recognizer, Synthesizer) whose
// events are delivered back by the session loop. Neither subsystem is safe for
// concurrent use; they are owned by that loop.
package speech

import (
	"errors"
	"time"

	"alfredoptarigan/voice-screener/internal/clock"
)

// ErrUnsupported is returned by platform adapters that lack a speech API.
var ErrUnsupported = errors.New("speech: platform speech API unsupported")

// Lang is the recognition language of every session.
const Lang = "en-US"

// Result is one entry of a recognition result batch.
type Result struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"isFinal"`
}

// Recognizer is a continuous speech recognition session on the client
// platform. Result, end and error events are fed back into Input.
type Recognizer interface {
	Start(lang string) error
	Stop()
}

type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

type Utterance struct {
	ID     string  `json:"utteranceId"`
	Text   string  `json:"text"`
	Voice  *Voice  `json:"voice,omitempty"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// Synthesizer is the platform speech synthesis engine. Start, end and error
// events for an utterance are fed back into Output by utterance ID.
type Synthesizer interface {
	Speak(u Utterance) error
	Cancel()
	Pause()
	Resume()
}

// Scheduler runs f after d on the owning session loop.
type Scheduler func(d time.Duration, f func()) clock.Timer
