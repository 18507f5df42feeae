package models

// MatchStatus is the lifecycle state of a Match.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusAccepted  MatchStatus = "accepted"
	MatchStatusRejected  MatchStatus = "rejected"
	MatchStatusCancelled MatchStatus = "cancelled"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusExpired   MatchStatus = "expired"
	MatchStatusDeleted   MatchStatus = "deleted"
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusPending:  {MatchStatusAccepted, MatchStatusRejected, MatchStatusCancelled},
	MatchStatusAccepted: {MatchStatusCompleted},
}

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusPending, MatchStatusAccepted, MatchStatusRejected, MatchStatusCancelled,
		MatchStatusCompleted, MatchStatusExpired, MatchStatusDeleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusExpired || s == MatchStatusDeleted
}

// CanTransition reports whether a match may move from one status to another.
// Expired and deleted are reachable from every non-terminal state.
func CanTransition(from, to MatchStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == MatchStatusExpired || to == MatchStatusDeleted {
		return true
	}
	for _, next := range matchTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
