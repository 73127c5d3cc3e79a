package interview

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

type Kind string

const (
	KindPlain          Kind = "plain"
	KindAnalysis       Kind = "analysis"
	KindConsentRequest Kind = "consent-request"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
}

// Transcript is the conversation history of one phase. It only grows by
// append; a phase boundary swaps in a new history wholesale. Messages never
// change in place, so a snapshot handed out earlier stays valid.
type Transcript struct {
	messages []Message
}

func (t *Transcript) Append(role Role, kind Kind, content string, at time.Time) Message {
	m := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: at,
		Kind:      kind,
	}
	t.messages = append(t.messages, m)
	return m
}

// Replace discards the history and starts over with msgs.
func (t *Transcript) Replace(msgs []Message) {
	t.messages = append([]Message(nil), msgs...)
}

// Messages returns a snapshot of the history.
func (t *Transcript) Messages() []Message {
	return t.messages[:len(t.messages):len(t.messages)]
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

// LastAssistant returns the latest interviewer line.
func (t *Transcript) LastAssistant() (Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == RoleAssistant {
			return t.messages[i], true
		}
	}
	return Message{}, false
}
