package cli

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/program-tray/program-tray/internal/config"
)

var stopCmd = &cobra.Command{
	Use:   "stop <config>",
	Short: "Quit the tray running a program, stopping the program",
	Args:  cobra.ExactArgs(1),
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	program, err := config.LoadProgram(args[0])
	if err != nil {
		return err
	}

	running, info, err := config.IsInstanceRunning(program.ID)
	if err != nil {
		return fmt.Errorf("failed to check instance status: %w", err)
	}
	if !running {
		fmt.Println(styleHint.Render(program.ID + " has no running tray."))
		return nil
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal PID %d: %w", info.PID, err)
	}

	// The tray removes its instance file once the program is down.
	deadline := time.Now().Add(program.StopGrace() + shutdownSlack + 3*time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if running, _, err := config.IsInstanceRunning(program.ID); err == nil && !running {
			fmt.Println(styleSuccess.Render(program.ID + " stopped."))
			return nil
		}
	}

	fmt.Println(styleWarning.Render(fmt.Sprintf("Tray (PID %d) is still shutting down.", info.PID)))
	return nil
}
