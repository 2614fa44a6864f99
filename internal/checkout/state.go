package checkout

// State is the single source of truth for what a session is doing.
type State int

const (
	StateIdle State = iota
	StateValidatingOrigin
	StateCheckingEntitlement
	StateCreatingOrder
	StateAwaitingConfirmation
	StateFinalizing
	StateSettled
	StateFailed
	StateDismissed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidatingOrigin:
		return "validating_origin"
	case StateCheckingEntitlement:
		return "checking_entitlement"
	case StateCreatingOrder:
		return "creating_order"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateFinalizing:
		return "finalizing"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	case StateDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateSettled || s == StateFailed || s == StateDismissed
}
