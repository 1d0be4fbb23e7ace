// Package cli implements the program-tray CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	checkOnly  bool
	foreground bool
)

var rootCmd = &cobra.Command{
	Use:   "program-tray [flags] <config>",
	Short: "Run a command from the system tray",
	Long: `program-tray wraps one configured command in a system tray icon that
starts and stops it. The config file is TOML (or YAML with a .yaml extension).`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("Error:")+" "+err.Error())
	}
	return err
}

func init() {
	rootCmd.Flags().BoolVar(&checkOnly, "check-only", false, "Load and validate the config, then exit")
	rootCmd.Flags().BoolVar(&foreground, "foreground", false, "Run without a tray: start now, stop on Ctrl+C")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}
