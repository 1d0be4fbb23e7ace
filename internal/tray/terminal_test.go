package tray

import (
	"errors"
	"reflect"
	"testing"
)

func lookPathIn(installed ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, n := range installed {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestTerminalCommand(t *testing.T) {
	argv := []string{"/usr/bin/program-tray", "logs", "--live", "/etc/vpn.toml"}

	tests := []struct {
		name      string
		preferred string
		installed []string
		want      []string
	}{
		{
			name:      "preferred terminal",
			preferred: "foot",
			installed: []string{"foot", "xterm"},
			want:      []string{"/usr/bin/foot", "-e", "/usr/bin/program-tray", "logs", "--live", "/etc/vpn.toml"},
		},
		{
			name:      "preferred missing",
			preferred: "foot",
			installed: []string{"xterm"},
			want:      []string{"/usr/bin/xterm", "-e", "/usr/bin/program-tray", "logs", "--live", "/etc/vpn.toml"},
		},
		{
			name:      "gnome terminal separator",
			installed: []string{"gnome-terminal", "xterm"},
			want:      []string{"/usr/bin/gnome-terminal", "--", "/usr/bin/program-tray", "logs", "--live", "/etc/vpn.toml"},
		},
		{
			name:      "kitty takes the command directly",
			installed: []string{"kitty"},
			want:      []string{"/usr/bin/kitty", "/usr/bin/program-tray", "logs", "--live", "/etc/vpn.toml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TerminalCommand("linux", tt.preferred, lookPathIn(tt.installed...), argv)
			if err != nil {
				t.Fatalf("TerminalCommand() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TerminalCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTerminalCommandNone(t *testing.T) {
	if _, err := TerminalCommand("linux", "", lookPathIn(), []string{"true"}); !errors.Is(err, ErrNoTerminal) {
		t.Errorf("TerminalCommand() error = %v, want ErrNoTerminal", err)
	}
}

func TestTerminalCommandDarwin(t *testing.T) {
	got, err := TerminalCommand("darwin", "", lookPathIn(), []string{"/Applications/Program Tray/program-tray", "logs", "--live", `/Users/a/it's "vpn".toml`})
	if err != nil {
		t.Fatalf("TerminalCommand() error = %v", err)
	}
	want := []string{
		"osascript",
		"-e", `tell application "Terminal" to do script "'/Applications/Program Tray/program-tray' 'logs' '--live' '/Users/a/it'\\''s \"vpn\".toml'"`,
		"-e", `tell application "Terminal" to activate`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TerminalCommand() =\n%q\nwant\n%q", got, want)
	}
}
