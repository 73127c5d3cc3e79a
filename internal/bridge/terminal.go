package bridge

import (
	"alfredoptarigan/voice-screener/internal/interview"
	"alfredoptarigan/voice-screener/internal/speech"
)

const (
	CmdRecognitionStart = "recognition.start"
	CmdRecognitionStop  = "recognition.stop"
	CmdSpeak            = "speech.speak"
	CmdCancel           = "speech.cancel"
	CmdPause            = "speech.pause"
	CmdResume           = "speech.resume"
)

// Terminal is the browser seen from the session: its recognizer, its
// synthesizer and its screen.
type Terminal struct {
	out *Outbox
}

func NewTerminal(out *Outbox) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Recognizer() speech.Recognizer {
	return recognizer{t.out}
}

func (t *Terminal) Synthesizer() speech.Synthesizer {
	return synthesizer{t.out}
}

// Notify publishes an interview notification under its own type.
func (t *Terminal) Notify(n interview.Notification) {
	t.out.Publish(string(n.Type), n)
}

type recognizer struct {
	out *Outbox
}

func (r recognizer) Start(lang string) error {
	r.out.Publish(CmdRecognitionStart, map[string]any{"lang": lang, "continuous": true, "interimResults": true})
	return nil
}

func (r recognizer) Stop() {
	r.out.Publish(CmdRecognitionStop, nil)
}

type synthesizer struct {
	out *Outbox
}

func (s synthesizer) Speak(u speech.Utterance) error {
	s.out.Publish(CmdSpeak, u)
	return nil
}

func (s synthesizer) Cancel() { s.out.Publish(CmdCancel, nil) }
func (s synthesizer) Pause()  { s.out.Publish(CmdPause, nil) }
func (s synthesizer) Resume() { s.out.Publish(CmdResume, nil) }
