package models

import "fmt"

// State is the lifecycle state of the wrapped program.
type State int

// Program states.
const (
	StateStopped State = iota
	StateRunning
	StateCrashed // exited on its own with a non-zero status
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateCrashed:
		return "crashed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
