package tray

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/program-tray/program-tray/internal/launcher"
	"github.com/program-tray/program-tray/internal/models"
	"github.com/program-tray/program-tray/internal/secret"
)

type fakeController struct {
	program     *models.Program
	needsSecret bool
	state       models.State
	exitCode    int
	stopping    bool
	output      []string
	startErr    error
	starts      int
	stops       int
	lastSecret  string
}

func (f *fakeController) Program() *models.Program { return f.program }

func (f *fakeController) Start(ctx context.Context, secrets launcher.SecretProvider) error {
	if f.state == models.StateRunning {
		return launcher.ErrAlreadyRunning
	}
	if f.stopping {
		return launcher.ErrStopping
	}
	if f.startErr != nil {
		return f.startErr
	}
	if f.needsSecret {
		if secrets == nil {
			return launcher.ErrPlaceholderSubstitution
		}
		v, err := secrets.Secret(ctx, f.program.SecretLabel())
		if err != nil {
			return err
		}
		f.lastSecret = v
	}
	f.starts++
	f.state = models.StateRunning
	return nil
}

func (f *fakeController) Stop() error {
	if f.state != models.StateRunning {
		return launcher.ErrNotRunning
	}
	f.stops++
	f.state = models.StateStopped
	return nil
}

func (f *fakeController) IsRunning() bool { return f.state == models.StateRunning }

func (f *fakeController) Status() launcher.Status {
	st := launcher.Status{State: f.state, ExitCode: f.exitCode, Stopping: f.stopping}
	if f.state == models.StateRunning {
		st.PID = 42
	}
	return st
}

func (f *fakeController) NeedsSecret() bool { return f.needsSecret }

func (f *fakeController) Scrollback() []string { return f.output }

type fakeView struct {
	states  []launcher.Status
	prompts []string
	notes   []string
}

func (v *fakeView) ShowState(st launcher.Status) { v.states = append(v.states, st) }

func (v *fakeView) RequestSecret(label string) { v.prompts = append(v.prompts, label) }

func (v *fakeView) Notify(title, message string) { v.notes = append(v.notes, title+": "+message) }

func (v *fakeView) last() models.State {
	if len(v.states) == 0 {
		return -1
	}
	return v.states[len(v.states)-1].State
}

func newFixture(needsSecret bool) (*fakeController, *fakeView, *Sync) {
	ctrl := &fakeController{
		program:     &models.Program{ID: "vpn", Command: "openvpn"},
		needsSecret: needsSecret,
	}
	view := &fakeView{}
	return ctrl, view, NewSync(ctrl, view, nil)
}

func TestRefreshPushesChangesOnly(t *testing.T) {
	ctrl, view, s := newFixture(false)

	s.Refresh()
	s.Refresh()
	if len(view.states) != 1 || view.last() != models.StateStopped {
		t.Fatalf("states = %+v, want one stopped", view.states)
	}

	ctrl.state = models.StateRunning
	s.Refresh()
	s.Refresh()
	if len(view.states) != 2 || view.last() != models.StateRunning {
		t.Fatalf("states = %+v, want stopped then running", view.states)
	}
}

func TestRefreshAfterSelfExit(t *testing.T) {
	tests := []struct {
		name     string
		state    models.State
		exitCode int
		notified bool
	}{
		{name: "clean exit", state: models.StateStopped},
		{name: "crash", state: models.StateCrashed, exitCode: 3, notified: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, view, s := newFixture(false)
			s.OnToggleRequested()
			if view.last() != models.StateRunning {
				t.Fatalf("last state = %v, want running", view.last())
			}

			ctrl.state, ctrl.exitCode = tt.state, tt.exitCode
			s.Refresh()

			if view.last() != tt.state {
				t.Errorf("last state = %v, want %v", view.last(), tt.state)
			}
			if got := len(view.notes) == 1 && strings.Contains(view.notes[0], "status 3"); got != tt.notified {
				t.Errorf("notes = %q", view.notes)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	ctrl, view, s := newFixture(false)

	s.OnToggleRequested()
	if ctrl.starts != 1 || view.last() != models.StateRunning {
		t.Fatalf("after first toggle: starts = %d, state = %v", ctrl.starts, view.last())
	}

	s.OnToggleRequested()
	if ctrl.stops != 1 || view.last() != models.StateStopped {
		t.Fatalf("after second toggle: stops = %d, state = %v", ctrl.stops, view.last())
	}
	if len(view.notes) != 0 {
		t.Errorf("unexpected notifications %q", view.notes)
	}
}

func TestToggleStartFailure(t *testing.T) {
	ctrl, view, s := newFixture(false)
	ctrl.startErr = &launcher.SpawnError{Command: "openvpn", Reason: errors.New("not found")}

	s.Refresh()
	s.OnToggleRequested()

	if view.last() != models.StateStopped || len(view.states) != 1 {
		t.Errorf("states = %+v, want unchanged stopped", view.states)
	}
	if len(view.notes) != 1 || !strings.Contains(view.notes[0], "Failed to start") {
		t.Errorf("notes = %q", view.notes)
	}
}

func TestToggleAsksForSecret(t *testing.T) {
	ctrl, view, s := newFixture(true)
	ctrl.program.Secret.Label = "VPN password"

	s.OnToggleRequested()
	if ctrl.starts != 0 {
		t.Fatal("started before the secret was entered")
	}
	if len(view.prompts) != 1 || view.prompts[0] != "VPN password" {
		t.Fatalf("prompts = %q", view.prompts)
	}

	s.OnToggleRequested()
	if len(view.prompts) != 1 {
		t.Errorf("second prompt opened while one is pending")
	}

	s.OnSecretSubmitted("s3cr3t")
	if ctrl.starts != 1 || ctrl.lastSecret != "s3cr3t" {
		t.Errorf("starts = %d, secret = %q", ctrl.starts, ctrl.lastSecret)
	}
	if view.last() != models.StateRunning {
		t.Errorf("last state = %v, want running", view.last())
	}
}

func TestSecretCancelled(t *testing.T) {
	ctrl, view, s := newFixture(true)

	s.OnToggleRequested()
	s.OnSecretCancelled()
	s.OnSecretSubmitted("late")

	if ctrl.starts != 0 {
		t.Errorf("starts = %d after cancel", ctrl.starts)
	}

	s.OnToggleRequested()
	if len(view.prompts) != 2 {
		t.Errorf("prompts = %d, want a new prompt after cancel", len(view.prompts))
	}
}

func TestRememberedSecret(t *testing.T) {
	keyring.MockInit()
	store := secret.NewStore()

	ctrl, view, _ := newFixture(true)
	ctrl.program.Secret.Remember = true
	s := NewSync(ctrl, view, store)

	s.OnToggleRequested()
	s.OnSecretSubmitted("s3cr3t")
	if v, found, _ := store.Get("vpn"); !found || v != "s3cr3t" {
		t.Fatalf("stored = %q, %v", v, found)
	}

	s.OnToggleRequested() // stop
	s.OnToggleRequested() // start from keyring
	if len(view.prompts) != 1 {
		t.Errorf("prompts = %d, want the remembered secret to be used", len(view.prompts))
	}
	if ctrl.starts != 2 || ctrl.lastSecret != "s3cr3t" {
		t.Errorf("starts = %d, secret = %q", ctrl.starts, ctrl.lastSecret)
	}

	s.OnToggleRequested() // stop
	s.ForgetSecret()
	s.OnToggleRequested()
	if len(view.prompts) != 2 {
		t.Errorf("prompts = %d, want a prompt after forgetting", len(view.prompts))
	}
}

func TestStoreIgnoredWithoutRemember(t *testing.T) {
	keyring.MockInit()
	store := secret.NewStore()
	if err := store.Set("vpn", "stale"); err != nil {
		t.Fatal(err)
	}

	ctrl, view, _ := newFixture(true)
	s := NewSync(ctrl, view, store)

	s.OnToggleRequested()
	if len(view.prompts) != 1 {
		t.Fatal("keyring value used although remember is off")
	}
	s.OnSecretSubmitted("fresh")
	if v, _, _ := store.Get("vpn"); v != "stale" {
		t.Errorf("stored = %q, want untouched", v)
	}
}

func TestTooltip(t *testing.T) {
	tests := []struct {
		st   launcher.Status
		want string
	}{
		{launcher.Status{State: models.StateRunning}, "VPN: running"},
		{launcher.Status{State: models.StateStopped}, "VPN: stopped"},
		{launcher.Status{State: models.StateCrashed, ExitCode: 2}, "VPN: exited with status 2"},
		{launcher.Status{State: models.StateStopped, Stopping: true}, "VPN: stopping"},
	}

	for _, tt := range tests {
		if got := Tooltip("VPN", tt.st); got != tt.want {
			t.Errorf("Tooltip(%v) = %q, want %q", tt.st.State, got, tt.want)
		}
	}
}

func TestToggleWhileStopping(t *testing.T) {
	tests := []struct {
		name        string
		needsSecret bool
	}{
		{name: "plain"},
		{name: "with secret", needsSecret: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, view, s := newFixture(tt.needsSecret)
			s.OnToggleRequested()
			if tt.needsSecret {
				s.OnSecretSubmitted("s3cr3t")
			}

			s.OnToggleRequested() // stop; the process lingers
			ctrl.stopping = true
			s.Refresh()
			if !view.states[len(view.states)-1].Stopping {
				t.Fatalf("last state = %+v, want stopping", view.states[len(view.states)-1])
			}

			s.OnToggleRequested()
			if ctrl.starts != 1 {
				t.Errorf("starts = %d, want no start while stopping", ctrl.starts)
			}
			if len(view.prompts) > 1 {
				t.Errorf("prompts = %q, want no prompt while stopping", view.prompts)
			}

			ctrl.stopping = false
			s.Refresh()
			if view.states[len(view.states)-1].Stopping {
				t.Error("view still shows stopping after exit")
			}
			s.OnToggleRequested()
			if tt.needsSecret {
				s.OnSecretSubmitted("s3cr3t")
			}
			if ctrl.starts != 2 {
				t.Errorf("starts = %d, want restart after exit", ctrl.starts)
			}
		})
	}
}

func TestCrashNoteIncludesLastOutput(t *testing.T) {
	tests := []struct {
		name   string
		output []string
		want   string
	}{
		{name: "no output", want: "VPN: Exited with status 1"},
		{
			name:   "last line",
			output: []string{"connecting", "AUTH_FAILED", "", "  "},
			want:   "VPN: Exited with status 1: AUTH_FAILED",
		},
		{
			name:   "long line",
			output: []string{strings.Repeat("x", 200)},
			want:   "VPN: Exited with status 1: " + strings.Repeat("x", maxNoteLine-1) + "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, view, s := newFixture(false)
			ctrl.program.UI.Title = "VPN"
			s.OnToggleRequested()

			ctrl.state, ctrl.exitCode, ctrl.output = models.StateCrashed, 1, tt.output
			s.Refresh()

			if len(view.notes) != 1 || view.notes[0] != tt.want {
				t.Errorf("notes = %q, want [%q]", view.notes, tt.want)
			}
		})
	}
}
