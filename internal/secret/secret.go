// Package secret collects the wrapped program's secret, either from the OS
// keyring or by asking the user.
package secret

import (
	"context"
	"errors"
)

var (
	// ErrCancelled is returned when the user dismisses a prompt.
	ErrCancelled = errors.New("secret entry cancelled")
	// ErrNoPrompter is returned when no way to ask the user is available.
	ErrNoPrompter = errors.New("no secret prompt available")
)

// Prompter asks the user for a secret value.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// availability is implemented by prompters that depend on the environment
// (a terminal, a dialog tool on PATH).
type availability interface {
	Available() bool
}

// Usable reports whether p can be used in the current environment.
func Usable(p Prompter) bool {
	if a, ok := p.(availability); ok {
		return a.Available()
	}
	return p != nil
}
