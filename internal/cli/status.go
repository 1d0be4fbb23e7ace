package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/program-tray/program-tray/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status <config>",
	Short: "Show whether a tray is running for a program",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	program, err := config.LoadProgram(args[0])
	if err != nil {
		return err
	}

	running, info, err := config.IsInstanceRunning(program.ID)
	if err != nil {
		return fmt.Errorf("failed to check instance status: %w", err)
	}

	fmt.Println(styleBrand.Render(program.Title()))
	if running {
		printField("Tray", styleSuccess.Render(fmt.Sprintf("running (PID %d)", info.PID)))
		printField("Since", info.StartedAt.Local().Format(time.DateTime))
	} else {
		printField("Tray", "not running")
	}

	logs, err := config.ListLogs(program.ID)
	if err != nil {
		return fmt.Errorf("failed to list session logs: %w", err)
	}
	if len(logs) > 0 {
		last := logs[0]
		printField("Last session", fmt.Sprintf("%s %s (exit %d)", badgeFor(last.Status).Render(last.Status), last.EndedAt, last.ExitCode))
	}
	return nil
}
