package secret

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// dialogTools are tried in order; the first one on PATH wins.
var dialogTools = []string{"zenity", "kdialog", "osascript"}

// DialogPrompter asks for the secret with a native desktop dialog.
type DialogPrompter struct {
	Title string
	// Tool is tried before the defaults; a name in PATH or an absolute path.
	Tool string

	lookPath func(file string) (string, error)
}

// NewDialogPrompter creates a prompter whose dialogs carry the given title.
func NewDialogPrompter(title string) *DialogPrompter {
	return &DialogPrompter{Title: title, lookPath: exec.LookPath}
}

// Available reports whether a dialog tool is installed.
func (d *DialogPrompter) Available() bool {
	_, err := d.tool()
	return err == nil
}

// Prompt shows a password dialog and returns the entered value.
func (d *DialogPrompter) Prompt(ctx context.Context, label string) (string, error) {
	tool, err := d.tool()
	if err != nil {
		return "", err
	}

	argv := dialogCommand(tool, d.Title, label)
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("%s failed: %w", tool, err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

func (d *DialogPrompter) tool() (string, error) {
	lookPath := d.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	candidates := dialogTools
	if d.Tool != "" {
		candidates = append([]string{d.Tool}, dialogTools...)
	}
	for _, name := range candidates {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNoPrompter
}

// dialogCommand builds the argv that asks for a hidden value with the given tool.
func dialogCommand(tool, title, label string) []string {
	switch filepath.Base(tool) {
	case "kdialog":
		return []string{tool, "--title", title, "--password", label}
	case "osascript":
		script := fmt.Sprintf(
			`text returned of (display dialog "%s" with title "%s" default answer "" with hidden answer)`,
			appleScriptQuote(label), appleScriptQuote(title))
		return []string{tool, "-e", script}
	default:
		return []string{tool, "--entry", "--hide-text", "--title=" + title, "--text=" + label}
	}
}

func appleScriptQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
