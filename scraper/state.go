package scraper

import "fmt"

// State is a phase of a scrape run.
type State int

// Run phases, in order. StateAborted is reachable from any non-terminal state.
const (
	StateIdle State = iota
	StateDiscoveringCollections
	StateCountingWork
	StateTraversing
	StateFinalizing
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscoveringCollections:
		return "discovering_collections"
	case StateCountingWork:
		return "counting_work"
	case StateTraversing:
		return "traversing"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

func (s State) canTransition(next State) bool {
	if s.Terminal() {
		return false
	}
	if next == StateAborted {
		return true
	}
	return next == s+1
}
