package tray

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/program-tray/program-tray/internal/launcher"
	"github.com/program-tray/program-tray/internal/models"
	"github.com/program-tray/program-tray/internal/secret"
)

// Sync maps tray events onto controller calls and controller state onto the view.
type Sync struct {
	ctrl  Controller
	view  View
	store *secret.Store

	shown          *launcher.Status
	awaitingSecret bool
}

var _ Handler = (*Sync)(nil)

// NewSync creates a Sync. store may be nil; it is only consulted when the
// program asks for its secret to be remembered.
func NewSync(ctrl Controller, view View, store *secret.Store) *Sync {
	if !ctrl.Program().Secret.Remember {
		store = nil
	}
	return &Sync{ctrl: ctrl, view: view, store: store}
}

// Refresh polls the controller and pushes its state to the view when it changed.
func (s *Sync) Refresh() {
	s.ctrl.IsRunning()
	st := s.ctrl.Status()
	if s.shown != nil && *s.shown == st {
		return
	}

	if s.shown != nil && s.shown.State == models.StateRunning && st.State == models.StateCrashed {
		msg := fmt.Sprintf("Exited with status %d", st.ExitCode)
		if line := lastOutputLine(s.ctrl.Scrollback()); line != "" {
			msg += ": " + line
		}
		s.view.Notify(s.ctrl.Program().Title(), msg)
	}
	s.shown = &st
	s.view.ShowState(st)
}

// OnToggleRequested stops a running program or starts a stopped one, asking
// for the secret first when the program needs it.
func (s *Sync) OnToggleRequested() {
	if s.awaitingSecret {
		return
	}

	if s.ctrl.IsRunning() {
		if err := s.ctrl.Stop(); err != nil {
			s.fail("stop", err)
		}
		s.Refresh()
		return
	}

	if s.ctrl.Status().Stopping {
		log.Printf("[tray] %s is still stopping, ignoring start", s.ctrl.Program().ID)
		s.Refresh()
		return
	}

	if !s.ctrl.NeedsSecret() {
		s.start(nil)
		return
	}

	if value, ok := s.rememberedSecret(); ok {
		s.start(launcher.StaticSecret(value))
		return
	}
	s.awaitingSecret = true
	s.view.RequestSecret(s.ctrl.Program().SecretLabel())
}

// OnSecretSubmitted starts the program with the value the user entered.
func (s *Sync) OnSecretSubmitted(value string) {
	if !s.awaitingSecret {
		return
	}
	s.awaitingSecret = false

	if s.start(launcher.StaticSecret(value)) && s.store != nil {
		if err := s.store.Set(s.ctrl.Program().ID, value); err != nil {
			log.Printf("[tray] %v", err)
		}
	}
}

// OnSecretCancelled abandons a pending start.
func (s *Sync) OnSecretCancelled() {
	if !s.awaitingSecret {
		return
	}
	s.awaitingSecret = false
	log.Printf("[tray] Secret prompt cancelled, not starting %s", s.ctrl.Program().ID)
}

// ForgetSecret removes the remembered secret, if any.
func (s *Sync) ForgetSecret() {
	if s.store == nil {
		return
	}
	if err := s.store.Forget(s.ctrl.Program().ID); err != nil {
		s.fail("forget the saved secret", err)
		return
	}
	s.view.Notify(s.ctrl.Program().Title(), "Saved secret forgotten")
}

func (s *Sync) start(secrets launcher.SecretProvider) bool {
	err := s.ctrl.Start(context.Background(), secrets)
	if err != nil {
		s.fail("start", err)
	}
	s.Refresh()
	return err == nil
}

func (s *Sync) rememberedSecret() (string, bool) {
	if s.store == nil {
		return "", false
	}
	value, found, err := s.store.Get(s.ctrl.Program().ID)
	if err != nil {
		log.Printf("[tray] %v", err)
		return "", false
	}
	return value, found
}

func (s *Sync) fail(action string, err error) {
	log.Printf("[tray] Failed to %s %s: %v", action, s.ctrl.Program().ID, err)
	s.view.Notify(s.ctrl.Program().Title(), fmt.Sprintf("Failed to %s: %v", action, err))
}

// maxNoteLine bounds the output excerpt shown in a crash notification.
const maxNoteLine = 120

// lastOutputLine returns the last non-blank output line, shortened for a notification.
func lastOutputLine(lines []string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > maxNoteLine {
			line = string(r[:maxNoteLine-1]) + "…"
		}
		return line
	}
	return ""
}

// Tooltip describes the program state in one line.
func Tooltip(title string, st launcher.Status) string {
	if st.Stopping {
		return fmt.Sprintf("%s: stopping", title)
	}
	switch st.State {
	case models.StateRunning:
		return fmt.Sprintf("%s: running", title)
	case models.StateCrashed:
		return fmt.Sprintf("%s: exited with status %d", title, st.ExitCode)
	default:
		return fmt.Sprintf("%s: stopped", title)
	}
}
