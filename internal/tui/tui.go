// Package tui implements the interactive session log browser and the live
// output follower.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/program-tray/program-tray/internal/config"
	"github.com/program-tray/program-tray/internal/models"
)

// Run browses the session logs of a program until the user quits.
func Run(programID, title string) error {
	model := NewModel(title,
		func() ([]*models.LogEntry, error) { return config.ListLogs(programID) },
		func(logID string) (*models.LogEntry, string, error) { return config.ReadLog(programID, logID) },
	)

	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// RunLive follows the output of the program's current session until the user quits.
func RunLive(programID, title string) error {
	path, err := config.LiveOutputFile(programID)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(NewLiveModel(title, path), tea.WithAltScreen()).Run()
	return err
}
