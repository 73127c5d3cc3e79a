package interview

import (
	"alfredoptarigan/voice-screener/internal/script"
)

type NotificationType string

const (
	NoteMessage       NotificationType = "message"
	NoteTranscript    NotificationType = "transcript"
	NoteMicState      NotificationType = "mic_state"
	NoteControls      NotificationType = "controls"
	NoteOptions       NotificationType = "options"
	NoteUploadControl NotificationType = "upload_control"
	NoteConsent       NotificationType = "consent"
	NoteCountdown     NotificationType = "countdown"
	NoteWarning       NotificationType = "warning"
	NoteError         NotificationType = "error"
	NotePhase         NotificationType = "phase"
	NoteReleaseMedia  NotificationType = "release_media"
	NoteEnded         NotificationType = "ended"
	NoteRedirect      NotificationType = "redirect"
)

// Notification is everything the host needs to render the interview. The
// end of the session is announced with NoteEnded instead of shared state.
type Notification struct {
	Type         NotificationType `json:"type"`
	Message      *Message         `json:"message,omitempty"`
	Messages     []Message        `json:"messages,omitempty"`
	Mic          string           `json:"mic,omitempty"`
	Phase        string           `json:"phase,omitempty"`
	Visible      bool             `json:"visible"`
	Options      []script.Option  `json:"options,omitempty"`
	DocumentType string           `json:"documentType,omitempty"`
	Seconds      int              `json:"seconds,omitempty"`
	URL          string           `json:"url,omitempty"`
	Text         string           `json:"text,omitempty"`
	Outcome      string           `json:"outcome,omitempty"`
}

// Notifier receives notifications on the session loop. It must not block.
type Notifier func(Notification)
