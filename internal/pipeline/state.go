package pipeline

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of one run.
type State string

const (
	StateIdle               State = ""
	StateSegmenting         State = "segmenting"
	StateAwaitingFormatting State = "awaiting-formatting"
	StateRetrying           State = "retrying"
	StateStructuring        State = "structuring"
	StateDone               State = "done"
	StateFailed             State = "failed"
)

// ErrInvalidTransition is returned when the run attempts an edge the state
// machine does not allow.
var ErrInvalidTransition = errors.New("invalid pipeline transition")

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

func (s State) String() string {
	if s == StateIdle {
		return "idle"
	}
	return string(s)
}

// isValidTransition enforces the allowed pipeline edges. Retrying and
// structuring are optional, and failed is reachable only while segmenting.
func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateSegmenting
	case StateSegmenting:
		return to == StateAwaitingFormatting || to == StateFailed
	case StateAwaitingFormatting:
		return to == StateRetrying || to == StateStructuring || to == StateDone
	case StateRetrying:
		return to == StateStructuring || to == StateDone
	case StateStructuring:
		return to == StateDone
	default:
		return false
	}
}

type stateMachine struct {
	current  State
	onChange func(State)
}

func (m *stateMachine) transition(to State) error {
	if !isValidTransition(m.current, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.current, to)
	}
	m.current = to
	if m.onChange != nil {
		m.onChange(to)
	}
	return nil
}
