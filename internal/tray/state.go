// Package tray keeps the tray presentation in step with the program controller.
package tray

import (
	"context"

	"github.com/program-tray/program-tray/internal/launcher"
	"github.com/program-tray/program-tray/internal/models"
)

// Controller is the process control surface driven by the tray.
// *launcher.Controller implements it.
type Controller interface {
	Program() *models.Program
	Start(ctx context.Context, secrets launcher.SecretProvider) error
	Stop() error
	IsRunning() bool
	Status() launcher.Status
	NeedsSecret() bool
	// Scrollback returns the output lines of the most recent session.
	Scrollback() []string
}

// View is what the tray shows. Calls come from a single goroutine and must not block.
type View interface {
	ShowState(st launcher.Status)
	// RequestSecret opens a secret prompt; the result comes back through
	// Handler.OnSecretSubmitted or Handler.OnSecretCancelled.
	RequestSecret(label string)
	Notify(title, message string)
}

// Handler receives user events from the view.
type Handler interface {
	OnToggleRequested()
	OnSecretSubmitted(value string)
	OnSecretCancelled()
}
