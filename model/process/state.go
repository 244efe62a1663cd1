package process

import (
	"fmt"
	"strings"
)

// State represents the lifecycle state of a process record
type State int

const (
	StateNew State = iota
	StateReady
	StateRunning
	StateBlocked
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(data []byte) error {
	parsed, err := ParseState(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState returns the state for a case-insensitive name.
func ParseState(name string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "new":
		return StateNew, nil
	case "ready":
		return StateReady, nil
	case "running":
		return StateRunning, nil
	case "blocked":
		return StateBlocked, nil
	case "terminated":
		return StateTerminated, nil
	}
	return 0, fmt.Errorf("unknown process state %q", name)
}

// transitions lists every allowed edge of the lifecycle state machine.
// Terminated has no outgoing edge.
var transitions = map[State][]State{
	StateNew:        {StateRunning, StateBlocked, StateTerminated},
	StateReady:      {StateRunning, StateBlocked, StateTerminated},
	StateBlocked:    {StateReady, StateTerminated},
	StateRunning:    {StateTerminated},
	StateTerminated: nil,
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to State) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateTerminated
}
