package launcher

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// SudoCommand authorises the wrapped program as superuser through a desktop prompt.
const SudoCommand = "pkexec"

// SpawnSpec describes a single process launch.
type SpawnSpec struct {
	Path      string   // argv[0]
	Args      []string // argv[1:]
	Env       []string // complete environment
	Dir       string
	Stdin     []byte // written once then closed; nil leaves stdin detached
	Output    io.Writer
	Superuser bool
}

// Handle is a live child process.
type Handle interface {
	Pid() int
	// Done is closed once the process has exited and its output is drained.
	Done() <-chan struct{}
	// ExitCode is valid after Done is closed; -1 means killed by a signal.
	ExitCode() int
	Signal(sig os.Signal) error
	Kill() error
}

// Spawner creates processes.
type Spawner interface {
	Spawn(spec SpawnSpec) (Handle, error)
}

// ExecSpawner starts processes with os/exec.
type ExecSpawner struct{}

// commandFor returns the executable and arguments that run spec, wrapped in
// SudoCommand for superuser programs.
func commandFor(spec SpawnSpec) (string, []string) {
	if !spec.Superuser {
		return spec.Path, spec.Args
	}
	args := make([]string, 0, len(spec.Args)+1)
	args = append(args, spec.Path)
	return SudoCommand, append(args, spec.Args...)
}

// Spawn starts the process and performs the one-shot stdin write.
func (ExecSpawner) Spawn(spec SpawnSpec) (Handle, error) {
	path, args := commandFor(spec)

	cmd := exec.Command(path, args...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir
	cmd.Stdout = spec.Output
	cmd.Stderr = spec.Output
	// Grandchildren holding the output pipe must not pin Wait forever.
	cmd.WaitDelay = time.Second

	var stdin io.WriteCloser
	if spec.Stdin != nil {
		var err error
		if stdin, err = cmd.StdinPipe(); err != nil {
			return nil, err
		}
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &execHandle{cmd: cmd, done: make(chan struct{})}
	if stdin != nil {
		if _, err := stdin.Write(spec.Stdin); err != nil {
			log.Printf("[launcher] failed to write stdin of pid %d: %v", cmd.Process.Pid, err)
		}
		_ = stdin.Close()
	}
	go h.wait()

	if spec.Superuser {
		return &sudoHandle{execHandle: h}, nil
	}
	return h, nil
}

type execHandle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
}

func (h *execHandle) wait() {
	var exitErr *exec.ExitError
	if err := h.cmd.Wait(); err != nil && !errors.As(err, &exitErr) {
		log.Printf("[launcher] pid %d: %v", h.cmd.Process.Pid, err)
	}
	h.exitCode = h.cmd.ProcessState.ExitCode()
	close(h.done)
}

func (h *execHandle) Pid() int { return h.cmd.Process.Pid }

func (h *execHandle) Done() <-chan struct{} { return h.done }

func (h *execHandle) ExitCode() int { return h.exitCode }

func (h *execHandle) Signal(s os.Signal) error { return h.cmd.Process.Signal(s) }

func (h *execHandle) Kill() error { return h.cmd.Process.Kill() }

// sudoHandle signals a process owned by root through pkexec kill.
type sudoHandle struct {
	*execHandle
}

func (h *sudoHandle) Signal(s os.Signal) error {
	argv, err := sudoKillCommand(s, h.Pid())
	if err != nil {
		return err
	}
	out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("kill command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (h *sudoHandle) Kill() error {
	return h.Signal(syscall.SIGKILL)
}

// sudoKillCommand builds "pkexec kill -NAME pid".
func sudoKillCommand(s os.Signal, pid int) ([]string, error) {
	sig, ok := s.(syscall.Signal)
	if !ok {
		return nil, fmt.Errorf("unsupported signal %v", s)
	}
	name := strings.TrimPrefix(SignalName(sig), "SIG")
	return []string{SudoCommand, "kill", "-" + name, strconv.Itoa(pid)}, nil
}

var signals = map[string]syscall.Signal{
	"SIGINT":  syscall.SIGINT,
	"SIGTERM": syscall.SIGTERM,
	"SIGHUP":  syscall.SIGHUP,
	"SIGQUIT": syscall.SIGQUIT,
	"SIGKILL": syscall.SIGKILL,
}

// ParseSignal maps a configured signal name onto a signal.
func ParseSignal(name string) (syscall.Signal, error) {
	sig, ok := signals[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unknown signal %q", name)
	}
	return sig, nil
}

// SignalName returns the SIG-prefixed name of sig.
func SignalName(sig syscall.Signal) string {
	for name, s := range signals {
		if s == sig {
			return name
		}
	}
	return sig.String()
}

// mergeEnv sets or replaces KEY=VALUE pairs of overrides in env.
func mergeEnv(env []string, overrides []string) []string {
	out := make([]string, len(env))
	copy(out, env)
	for _, kv := range overrides {
		key, value, _ := strings.Cut(kv, "=")
		out = setEnv(out, key, value)
	}
	return out
}

// setEnv sets or replaces an environment variable in a slice.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
