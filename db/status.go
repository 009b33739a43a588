package db

// Status is a complaint lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusResolved Status = "resolved"
	StatusRejected Status = "rejected"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// transitions maps each state to the states reachable from it.
// resolved and rejected are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusInReview, StatusRejected},
	StatusInReview: {StatusResolved, StatusRejected},
	StatusResolved: {},
	StatusRejected: {},
}

// CanTransition reports whether a complaint in state old may move to
// state new. Self-transitions are not allowed.
func CanTransition(old, new Status) bool {
	for _, s := range transitions[old] {
		if s == new {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether s admits no further transitions.
func TerminalStatus(s Status) bool {
	return len(transitions[s]) == 0
}
