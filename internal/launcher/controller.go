// Package launcher owns the lifecycle of the single wrapped program process.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"

	"github.com/program-tray/program-tray/internal/config"
	"github.com/program-tray/program-tray/internal/models"
	"github.com/program-tray/program-tray/internal/placeholder"
)

// SecretProvider supplies the value of the secret placeholder at start time.
type SecretProvider interface {
	Secret(ctx context.Context, label string) (string, error)
}

// SecretFunc adapts a function to SecretProvider.
type SecretFunc func(ctx context.Context, label string) (string, error)

// Secret calls f.
func (f SecretFunc) Secret(ctx context.Context, label string) (string, error) {
	return f(ctx, label)
}

// StaticSecret is a secret that was already collected, e.g. by a tray dialog.
type StaticSecret string

// Secret returns s.
func (s StaticSecret) Secret(context.Context, string) (string, error) {
	return string(s), nil
}

// Status is a snapshot of the controller state.
type Status struct {
	State     models.State
	ExitCode  int // last non-zero exit code when State is StateCrashed
	PID       int
	Command   string
	StartedAt time.Time
	// Stopping is set between Stop and the exit of the stopped process.
	// Start is refused meanwhile.
	Stopping bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithSpawner replaces the os/exec process boundary.
func WithSpawner(s Spawner) Option {
	return func(c *Controller) { c.spawner = s }
}

// WithOnChange sets a callback invoked asynchronously whenever the state changes
// (program started, stopped, or exited on its own). Used to refresh the tray.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithOutput mirrors the program's stdout and stderr to w.
func WithOutput(w io.Writer) Option {
	return func(c *Controller) { c.mirror = w }
}

// WithSessionLogs persists each session's output under ~/.program-tray/logs.
func WithSessionLogs() Option {
	return func(c *Controller) { c.sessionLogs = true }
}

// WithLiveOutput mirrors each session's raw output to the program's live
// output file, truncated at every start, for `logs --live` to follow.
func WithLiveOutput() Option {
	return func(c *Controller) { c.liveOutput = true }
}

// WithLogRetention keeps only the newest keep session logs of the program.
func WithLogRetention(keep int) Option {
	return func(c *Controller) { c.keepLogs = keep }
}

// session is one spawned process.
type session struct {
	id            string
	handle        Handle
	command       string
	startedAt     time.Time
	output        *outputBuffer
	live          io.Closer
	stopRequested bool
}

// Controller starts, stops and observes one external program. It exclusively
// owns the process handle.
type Controller struct {
	mu       sync.Mutex
	program  *models.Program
	spawner  Spawner
	onChange func()
	mirror   io.Writer

	sessionLogs bool
	liveOutput  bool
	keepLogs    int

	state    models.State
	exitCode int
	current  *session
	monitors sync.WaitGroup
}

// New creates a controller for the given program.
func New(program *models.Program, opts ...Option) *Controller {
	c := &Controller{
		program: program,
		spawner: ExecSpawner{},
		state:   models.StateStopped,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Program returns the wrapped program description.
func (c *Controller) Program() *models.Program {
	return c.program
}

// NeedsSecret reports whether Start will ask for the secret placeholder.
func (c *Controller) NeedsSecret() bool {
	return placeholder.Contains(c.program.Input, c.program.SecretName())
}

// Start spawns the program. It returns once the spawn itself succeeded; it does
// not wait for the program to finish starting up. secrets may be nil when
// NeedsSecret is false.
func (c *Controller) Start(ctx context.Context, secrets SecretProvider) error {
	if err := c.checkStartable(); err != nil {
		return err
	}

	argv, command, err := c.resolveCommand()
	if err != nil {
		return err
	}

	// Prompting may block on the user, so it happens outside the lock.
	stdin, err := c.resolveInput(ctx, secrets)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.startableLocked(); err != nil {
		return err
	}

	mirror, live := c.openMirrorLocked()
	output := newOutputBuffer(mirror)
	handle, err := c.spawner.Spawn(SpawnSpec{
		Path:      argv[0],
		Args:      argv[1:],
		Env:       mergeEnv(os.Environ(), c.program.EnvList()),
		Dir:       c.program.WorkDir,
		Stdin:     stdin,
		Output:    output,
		Superuser: c.program.Superuser,
	})
	if err != nil {
		if live != nil {
			live.Close()
		}
		return &SpawnError{Command: command, Reason: err}
	}

	s := &session{
		id:        uuid.New().String(),
		handle:    handle,
		command:   command,
		startedAt: time.Now().UTC(),
		output:    output,
		live:      live,
	}
	c.current = s
	c.state = models.StateRunning
	c.exitCode = 0

	c.logf("Started pid %d: %s", handle.Pid(), command)
	c.monitors.Add(1)
	go c.monitor(s)
	c.notifyLocked()
	return nil
}

// Stop requests termination of the running program. It returns after the
// signal was sent; the process may still be shutting down. A process that
// ignores the signal is killed once the configured stop timeout elapses.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reconcileLocked()
	if c.state != models.StateRunning {
		return ErrNotRunning
	}

	s := c.current
	sig, err := ParseSignal(c.program.Signal())
	if err != nil {
		return err
	}
	if err := s.handle.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to send %s to pid %d: %w", c.program.Signal(), s.handle.Pid(), err)
	}

	s.stopRequested = true
	c.state = models.StateStopped
	c.logf("Sent %s to pid %d", c.program.Signal(), s.handle.Pid())

	go c.escalate(s, c.program.StopGrace())
	c.notifyLocked()
	return nil
}

// StopAndWait stops the program if it is running and blocks until the last
// session has exited and its log is written, killing the process when timeout
// elapses. Used on shutdown.
func (c *Controller) StopAndWait(timeout time.Duration) {
	if err := c.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		c.logf("Stop failed: %v", err)
	}

	c.mu.Lock()
	s := c.current
	c.mu.Unlock()

	if s != nil {
		select {
		case <-s.handle.Done():
		case <-time.After(timeout):
			c.logf("Pid %d still running after %s, killing", s.handle.Pid(), timeout)
			_ = s.handle.Kill()
			<-s.handle.Done()
		}
	}
	c.monitors.Wait()
}

// IsRunning polls the process handle without blocking and reconciles the
// state when the program exited on its own.
func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reconcileLocked()
	return c.state == models.StateRunning
}

// Status returns a reconciled snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reconcileLocked()
	st := Status{State: c.state, ExitCode: c.exitCode, Stopping: c.stoppingLocked()}
	if c.current != nil && c.state == models.StateRunning {
		st.PID = c.current.handle.Pid()
		st.Command = c.current.command
		st.StartedAt = c.current.startedAt
	}
	return st
}

// Scrollback returns the output lines of the most recent session.
func (c *Controller) Scrollback() []string {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.output.Lines()
}

// openMirrorLocked combines the configured mirror with a fresh live output
// file. A live file that cannot be created only costs the live view.
func (c *Controller) openMirrorLocked() (io.Writer, io.Closer) {
	if !c.liveOutput {
		return c.mirror, nil
	}
	f, err := config.CreateLiveOutput(c.program.ID)
	if err != nil {
		c.logf("Live output disabled for this session: %v", err)
		return c.mirror, nil
	}
	if c.mirror == nil {
		return f, f
	}
	return io.MultiWriter(c.mirror, f), f
}

func (c *Controller) resolveCommand() ([]string, string, error) {
	command, missing := placeholder.Expand(c.program.Command, c.program.Args)
	if len(missing) > 0 {
		return nil, "", fmt.Errorf("%w: command: no value for %s", ErrPlaceholderSubstitution, placeholder.Format(missing))
	}

	argv, err := shlex.Split(command)
	if err != nil {
		return nil, command, &SpawnError{Command: command, Reason: err}
	}
	if len(argv) == 0 {
		return nil, command, &SpawnError{Command: command, Reason: fmt.Errorf("empty command string")}
	}
	return argv, command, nil
}

// resolveInput renders the stdin payload. The payload always ends with exactly
// one newline.
func (c *Controller) resolveInput(ctx context.Context, secrets SecretProvider) ([]byte, error) {
	if c.program.Input == "" {
		return nil, nil
	}

	values := make(map[string]string, len(c.program.Args)+1)
	for k, v := range c.program.Args {
		values[k] = v
	}

	if c.NeedsSecret() {
		if secrets == nil {
			return nil, fmt.Errorf("%w: no way to ask for %s", ErrPlaceholderSubstitution, c.program.SecretLabel())
		}
		secret, err := secrets.Secret(ctx, c.program.SecretLabel())
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrPlaceholderSubstitution, c.program.SecretLabel(), err)
		}
		values[c.program.SecretName()] = secret
	}

	input, missing := placeholder.Expand(c.program.Input, values)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: input: no value for %s", ErrPlaceholderSubstitution, placeholder.Format(missing))
	}
	if !strings.HasSuffix(input, "\n") {
		input += "\n"
	}
	return []byte(input), nil
}

func (c *Controller) checkStartable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startableLocked()
}

// startableLocked returns ErrAlreadyRunning while a process is running and
// ErrStopping while a stopped one is still shutting down.
func (c *Controller) startableLocked() error {
	c.reconcileLocked()
	if c.state == models.StateRunning {
		return ErrAlreadyRunning
	}
	if c.stoppingLocked() {
		return ErrStopping
	}
	return nil
}

// stoppingLocked reports whether the current session was stopped but has not exited.
func (c *Controller) stoppingLocked() bool {
	s := c.current
	if s == nil || !s.stopRequested {
		return false
	}
	select {
	case <-s.handle.Done():
		return false
	default:
		return true
	}
}

// reconcileLocked folds an observed exit of the current session into the state.
// Must be called while holding c.mu.
func (c *Controller) reconcileLocked() {
	s := c.current
	if s == nil || c.state != models.StateRunning {
		return
	}

	select {
	case <-s.handle.Done():
	default:
		return
	}

	code := s.handle.ExitCode()
	if code == 0 || s.stopRequested {
		c.state = models.StateStopped
		c.exitCode = 0
	} else {
		c.state = models.StateCrashed
		c.exitCode = code
	}
	c.logf("Program exited with status %d", code)
	c.notifyLocked()
}

// monitor waits for a session to end, reconciles the state and writes the session log.
func (c *Controller) monitor(s *session) {
	defer c.monitors.Done()
	<-s.handle.Done()

	c.mu.Lock()
	stopped := s.stopRequested
	if c.current == s {
		c.reconcileLocked()
		if stopped {
			// The stopping phase is over; Start is allowed again.
			c.notifyLocked()
		}
	}
	c.mu.Unlock()

	if s.live != nil {
		if err := s.live.Close(); err != nil {
			c.logf("Failed to close live output: %v", err)
		}
	}
	if c.sessionLogs {
		c.writeSessionLog(s, stopped)
	}
}

// escalate kills a stopped process that outlives the grace period.
func (c *Controller) escalate(s *session, grace time.Duration) {
	select {
	case <-s.handle.Done():
	case <-time.After(grace):
		c.logf("Pid %d ignored stop signal for %s, killing", s.handle.Pid(), grace)
		if err := s.handle.Kill(); err != nil {
			c.logf("Kill failed: %v", err)
		}
	}
}

func (c *Controller) writeSessionLog(s *session, stopped bool) {
	code := s.handle.ExitCode()
	status := "completed"
	switch {
	case stopped:
		status = "stopped"
	case code != 0:
		status = "crashed"
	}

	entry, err := config.WriteLog(models.LogEntry{
		ProgramID: c.program.ID,
		SessionID: s.id,
		Command:   s.command,
		Status:    status,
		ExitCode:  code,
	}, s.startedAt, s.output.Lines())
	if err != nil {
		c.logf("Failed to write session log: %v", err)
		return
	}
	c.logf("Session log written: %s", entry.LogID)

	if removed, err := config.PruneLogs(c.program.ID, c.keepLogs); err != nil {
		c.logf("Failed to prune session logs: %v", err)
	} else if removed > 0 {
		c.logf("Pruned %d old session logs", removed)
	}
}

// notifyLocked fires the change callback. Must be called while holding c.mu.
func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		go c.onChange()
	}
}

// logf logs a message with the program context.
func (c *Controller) logf(format string, args ...interface{}) {
	prefix := fmt.Sprintf("[program:%s] ", c.program.ID)
	log.Printf(prefix+format, args...)
}
