package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/program-tray/program-tray/internal/config"
	"github.com/program-tray/program-tray/internal/models"
)

var configureCmd = &cobra.Command{
	Use:     "configure",
	Aliases: []string{"settings"},
	Short:   "Configure global settings",
	Long: `Configure global settings interactively.

This allows you to modify:
  - Desktop notifications
  - Preferred secret dialog tool (zenity, kdialog, osascript or a path)
  - Number of session logs kept per program

Press Enter to keep the current value for any setting.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	changed, err := editSettings(bufio.NewReader(os.Stdin), os.Stdout, settings)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Println("\nNo changes made.")
		return nil
	}

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}
	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Println("\n" + styleSuccess.Render("Settings updated."))
	fmt.Println(styleHint.Render("Running trays pick them up on their next start."))
	return nil
}

// editSettings prompts for each setting and reports whether any value changed.
func editSettings(reader *bufio.Reader, out io.Writer, settings *models.Settings) (bool, error) {
	changed := false

	notify := promptYesNoWithCurrent(reader, out, "Show desktop notifications?", settings.Notifications.Enabled)
	if notify != settings.Notifications.Enabled {
		settings.Notifications.Enabled = notify
		changed = true
	}

	current := settings.Dialog.Tool
	if current == "" {
		current = "auto"
	}
	fmt.Fprintf(out, "  Secret dialog tool [%s]: ", current)
	tool := readLine(reader)
	if tool != "" {
		if tool == "auto" {
			tool = ""
		}
		candidate := *settings
		candidate.Dialog.Tool = tool
		if err := config.ValidateSettings(&candidate); err != nil {
			return false, fmt.Errorf("invalid dialog tool %q (expected zenity, kdialog, osascript, auto or an absolute path): %w", tool, err)
		}
		if tool != settings.Dialog.Tool {
			settings.Dialog.Tool = tool
			changed = true
		}
	}

	fmt.Fprintf(out, "  Session logs kept per program, 0 = all [%d]: ", settings.Logs.Keep)
	if keep := readLine(reader); keep != "" {
		n, err := strconv.Atoi(keep)
		if err != nil || n < 0 {
			return false, fmt.Errorf("invalid log count: %s", keep)
		}
		if n != settings.Logs.Keep {
			settings.Logs.Keep = n
			changed = true
		}
	}

	return changed, nil
}

// promptYesNoWithCurrent prompts for a yes/no value showing the current value.
func promptYesNoWithCurrent(reader *bufio.Reader, out io.Writer, prompt string, current bool) bool {
	currentStr := "no"
	if current {
		currentStr = "yes"
	}

	fmt.Fprintf(out, "  %s [%s]: ", prompt, currentStr)
	response := strings.ToLower(readLine(reader))

	if response == "" {
		return current
	}
	return response == "y" || response == "yes"
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
