// Package mic implements the microphone state machine that gates every turn
// of the interview. It is the only place the mic state changes; speech input,
// speech output and the controller ask it for permission before acting.
//
//	READY      --click-->            LISTENING  (start recognition)
//	LISTENING  --click-->            PROCESSING (stop recognition, submit)
//	SPEAKING   --utterance end/err-> READY
//	PROCESSING --answer handled-->   READY
//
// Speak is a system override that forces SPEAKING from any state. Clicks while
// SPEAKING or PROCESSING are ignored. A Machine is not safe for concurrent use;
// it is owned by a single session loop.
package mic

type State int

const (
	Ready State = iota
	Speaking
	Listening
	Processing
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Speaking:
		return "SPEAKING"
	case Listening:
		return "LISTENING"
	case Processing:
		return "PROCESSING"
	default:
		return "UNKNOWN"
	}
}

// Action tells the caller what a click requires it to do.
type Action int

const (
	ActionNone Action = iota
	ActionStartListening
	ActionSubmit
)

type Machine struct {
	state    State
	closed   bool
	onChange func(from, to State)
}

// New returns a machine in READY. onChange may be nil.
func New(onChange func(from, to State)) *Machine {
	return &Machine{state: Ready, onChange: onChange}
}

func (m *Machine) State() State {
	return m.state
}

// CanListen reports whether recognition may run: a turn opening from READY
// or the open LISTENING turn. It is false while SPEAKING or PROCESSING.
func (m *Machine) CanListen() bool {
	return !m.closed && (m.state == Ready || m.state == Listening)
}

// CanSpeak reports whether a system-initiated utterance may be started.
// Speaking overrides any turn until the machine is closed.
func (m *Machine) CanSpeak() bool {
	return !m.closed
}

// CanAnswer reports whether the visible answer controls accept input.
func (m *Machine) CanAnswer() bool {
	return !m.closed && m.state == Ready
}

// Click applies a mic button press.
func (m *Machine) Click() Action {
	if m.closed {
		return ActionNone
	}
	switch m.state {
	case Ready:
		m.set(Listening)
		return ActionStartListening
	case Listening:
		m.set(Processing)
		return ActionSubmit
	default:
		return ActionNone
	}
}

// ForceSpeaking moves to SPEAKING regardless of the current state.
func (m *Machine) ForceSpeaking() {
	if m.closed {
		return
	}
	m.set(Speaking)
}

// SpeakingDone handles an utterance end or error.
func (m *Machine) SpeakingDone() bool {
	return m.from(Speaking, Ready)
}

// AnswerHandled closes a PROCESSING turn. It is a no-op when answer handling
// already moved the machine on, e.g. by speaking the next question.
func (m *Machine) AnswerHandled() bool {
	return m.from(Processing, Ready)
}

// RecognitionStopped returns an open LISTENING turn to READY when recognition
// ends without a pending restart or fails.
func (m *Machine) RecognitionStopped() bool {
	return m.from(Listening, Ready)
}

// Close freezes the machine in READY; every later transition is refused.
func (m *Machine) Close() {
	if m.closed {
		return
	}
	m.set(Ready)
	m.closed = true
}

func (m *Machine) Closed() bool {
	return m.closed
}

func (m *Machine) from(want, to State) bool {
	if m.closed || m.state != want {
		return false
	}
	m.set(to)
	return true
}

func (m *Machine) set(to State) {
	from := m.state
	if from == to {
		return
	}
	m.state = to
	if m.onChange != nil {
		m.onChange(from, to)
	}
}
