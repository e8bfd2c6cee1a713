package session

// Phase is the single source of truth for what the hosting UI renders. It is
// owned by the session loop and mutated only through MoveState.
type Phase uint8

const (
	PhaseSetup Phase = iota + 1
	PhaseWaitingRoom
	PhaseLoading
	PhasePlaying
	PhaseRoundSummary
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseWaitingRoom:
		return "waitingRoom"
	case PhaseLoading:
		return "loading"
	case PhasePlaying:
		return "playing"
	case PhaseRoundSummary:
		return "roundSummary"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}
