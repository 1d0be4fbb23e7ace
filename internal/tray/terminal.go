package tray

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoTerminal is returned when no terminal emulator can be found.
var ErrNoTerminal = errors.New("no terminal emulator found")

// terminals are tried in order after $TERMINAL, each with the flag that
// makes it run the rest of the command line.
var terminals = []struct {
	name string
	exec string
}{
	{"x-terminal-emulator", "-e"},
	{"gnome-terminal", "--"},
	{"konsole", "-e"},
	{"xfce4-terminal", "-x"},
	{"alacritty", "-e"},
	{"kitty", ""},
	{"xterm", "-e"},
}

// TerminalCommand returns the argv that runs argv in a new terminal window.
// preferred is the user's $TERMINAL; lookPath resolves names against PATH.
func TerminalCommand(goos, preferred string, lookPath func(string) (string, error), argv []string) ([]string, error) {
	if goos == "darwin" {
		script := fmt.Sprintf(`tell application "Terminal" to do script "%s"`, appleScriptEscape(shellJoin(argv)))
		return []string{"osascript", "-e", script, "-e", `tell application "Terminal" to activate`}, nil
	}

	if preferred != "" {
		if path, err := lookPath(preferred); err == nil {
			return withExec(path, "-e", argv), nil
		}
	}
	for _, t := range terminals {
		if path, err := lookPath(t.name); err == nil {
			return withExec(path, t.exec, argv), nil
		}
	}
	return nil, ErrNoTerminal
}

func withExec(terminal, flag string, argv []string) []string {
	cmd := []string{terminal}
	if flag != "" {
		cmd = append(cmd, flag)
	}
	return append(cmd, argv...)
}

// shellJoin quotes every argument for a POSIX shell.
func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func appleScriptEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
