package interview

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseOne
	PhaseConsent
	PhaseTwo
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseCountdown:
		return "COUNTDOWN"
	case PhaseOne:
		return "PHASE1_ACTIVE"
	case PhaseConsent:
		return "CONSENT_PENDING"
	case PhaseTwo:
		return "PHASE2_ACTIVE"
	case PhaseEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

const (
	OutcomeCompleted  = "completed"
	OutcomeDeclined   = "declined"
	OutcomeTerminated = "terminated"
)
