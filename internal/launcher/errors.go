package launcher

import (
	"errors"
	"fmt"
)

// Process errors. None of them are fatal to the tray; the controller keeps its
// pre-call state whenever one is returned.
var (
	ErrAlreadyRunning          = errors.New("program is already running")
	ErrNotRunning              = errors.New("program is not running")
	ErrPlaceholderSubstitution = errors.New("placeholder substitution failed")

	// ErrStopping is returned by Start while a stopped process has not exited yet.
	ErrStopping = fmt.Errorf("%w: previous instance is still stopping", ErrAlreadyRunning)
)

// SpawnError reports that the OS refused to start the resolved command.
type SpawnError struct {
	Command string
	Reason  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Command, e.Reason)
}

func (e *SpawnError) Unwrap() error {
	return e.Reason
}
