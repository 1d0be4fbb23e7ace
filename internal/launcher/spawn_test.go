package launcher

import (
	"os"
	"reflect"
	"syscall"
	"testing"
)

func TestCommandFor(t *testing.T) {
	tests := []struct {
		name     string
		spec     SpawnSpec
		wantPath string
		wantArgs []string
	}{
		{
			name:     "plain",
			spec:     SpawnSpec{Path: "openvpn", Args: []string{"--config", "office.ovpn"}},
			wantPath: "openvpn",
			wantArgs: []string{"--config", "office.ovpn"},
		},
		{
			name:     "superuser",
			spec:     SpawnSpec{Path: "openvpn", Args: []string{"--config", "office.ovpn"}, Superuser: true},
			wantPath: SudoCommand,
			wantArgs: []string{"openvpn", "--config", "office.ovpn"},
		},
		{
			name:     "superuser without args",
			spec:     SpawnSpec{Path: "wg-quick", Superuser: true},
			wantPath: SudoCommand,
			wantArgs: []string{"wg-quick"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, args := commandFor(tt.spec)
			if path != tt.wantPath || !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("commandFor() = %q %q, want %q %q", path, args, tt.wantPath, tt.wantArgs)
			}
		})
	}
}

func TestCommandForKeepsSpecArgs(t *testing.T) {
	args := make([]string, 1, 4)
	args[0] = "--verb"
	spec := SpawnSpec{Path: "openvpn", Args: args, Superuser: true}

	commandFor(spec)
	if got := args[:cap(args)][1]; got != "" {
		t.Errorf("spec args backing array modified: %q", got)
	}
}

func TestSudoKillCommand(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want []string
	}{
		{syscall.SIGINT, []string{SudoCommand, "kill", "-INT", "4242"}},
		{syscall.SIGTERM, []string{SudoCommand, "kill", "-TERM", "4242"}},
		{syscall.SIGKILL, []string{SudoCommand, "kill", "-KILL", "4242"}},
	}

	for _, tt := range tests {
		t.Run(tt.sig.String(), func(t *testing.T) {
			got, err := sudoKillCommand(tt.sig, 4242)
			if err != nil {
				t.Fatalf("sudoKillCommand() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sudoKillCommand() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := sudoKillCommand(os.Interrupt, 1); err != nil {
		t.Errorf("os.Interrupt rejected: %v", err)
	}
}

type fakeSignal struct{}

func (fakeSignal) String() string { return "fake" }
func (fakeSignal) Signal()        {}

func TestSudoKillCommandUnsupported(t *testing.T) {
	if _, err := sudoKillCommand(fakeSignal{}, 1); err == nil {
		t.Error("sudoKillCommand() accepted a non-syscall signal")
	}
}
