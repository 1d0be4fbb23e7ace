package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/program-tray/program-tray/internal/config"
	"github.com/program-tray/program-tray/internal/tui"
)

var (
	logsPlain bool
	logsLive  bool
)

var logsCmd = &cobra.Command{
	Use:   "logs <config> [log-id]",
	Short: "Browse session logs, or print one",
	Long: `Without a log id, opens an interactive log browser when stdout is a
terminal and prints the list otherwise.

With --live, follows the output of the session a running tray manages.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVar(&logsPlain, "plain", false, "Print the log list instead of opening the browser")
	logsCmd.Flags().BoolVar(&logsLive, "live", false, "Follow the output of the current session")
	logsCmd.MarkFlagsMutuallyExclusive("plain", "live")
}

func runLogs(cmd *cobra.Command, args []string) error {
	program, err := config.LoadProgram(args[0])
	if err != nil {
		return err
	}

	if logsLive {
		if len(args) == 2 {
			return fmt.Errorf("--live does not take a log id")
		}
		return showLive(program.ID, program.Title())
	}

	if len(args) == 2 {
		entry, body, err := config.ReadLog(program.ID, args[1])
		if err != nil {
			return fmt.Errorf("failed to read log %s: %w", args[1], err)
		}
		printField("Command", entry.Command)
		printField("Started", entry.StartedAt)
		printField("Ended", entry.EndedAt)
		printField("Status", fmt.Sprintf("%s (exit %d)", badgeFor(entry.Status).Render(entry.Status), entry.ExitCode))
		fmt.Println()
		fmt.Print(body)
		return nil
	}

	if !logsPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		return tui.Run(program.ID, program.Title())
	}

	logs, err := config.ListLogs(program.ID)
	if err != nil {
		return fmt.Errorf("failed to list session logs: %w", err)
	}
	if len(logs) == 0 {
		fmt.Println(styleHint.Render("No session logs for " + program.ID + "."))
		return nil
	}

	for _, e := range logs {
		fmt.Printf("%s  %s  %s\n",
			styleValue.Render(e.LogID),
			badgeFor(e.Status).Render(fmt.Sprintf("%-9s", e.Status)),
			styleLabel.Render(e.Command))
	}
	return nil
}

// showLive follows the live output in a terminal and prints it once otherwise.
func showLive(programID, title string) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return tui.RunLive(programID, title)
	}

	path, err := config.LiveOutputFile(programID)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Println(styleHint.Render("No live output for " + programID + "."))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read live output: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}
