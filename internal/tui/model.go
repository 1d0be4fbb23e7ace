package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/program-tray/program-tray/internal/models"
)

type logsLoadedMsg struct {
	logs []*models.LogEntry
	err  error
}

type logContentMsg struct {
	entry   *models.LogEntry
	content string
	err     error
}

// Model is the bubbletea model of the session log browser.
type Model struct {
	title  string
	viewer *LogViewer
	list   func() ([]*models.LogEntry, error)
	read   func(logID string) (*models.LogEntry, string, error)
	err    error
	width  int
	height int
}

// NewModel creates a log browser over the given log source.
func NewModel(title string, list func() ([]*models.LogEntry, error), read func(string) (*models.LogEntry, string, error)) Model {
	return Model{
		title:  title,
		viewer: NewLogViewer(),
		list:   list,
		read:   read,
	}
}

// Init loads the log list.
func (m Model) Init() tea.Cmd {
	return m.loadLogs
}

func (m Model) loadLogs() tea.Msg {
	logs, err := m.list()
	return logsLoadedMsg{logs: logs, err: err}
}

func (m Model) loadContent(logID string) tea.Cmd {
	return func() tea.Msg {
		entry, content, err := m.read(logID)
		return logContentMsg{entry: entry, content: content, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		// Header and status bar take one line each.
		m.viewer.SetSize(msg.Width, msg.Height-2)

	case logsLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.viewer.SetLogs(msg.logs)
		}

	case logContentMsg:
		m.err = msg.err
		if msg.err == nil {
			m.viewer.SetLogContent(msg.entry, msg.content)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, logKeys.Quit):
		return m, tea.Quit
	case key.Matches(msg, logKeys.Back):
		if m.viewer.IsViewing() {
			m.viewer.GoBack()
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, logKeys.Up):
		m.viewer.MoveUp()
	case key.Matches(msg, logKeys.Down):
		m.viewer.MoveDown()
	case key.Matches(msg, logKeys.PageUp):
		m.viewer.PageUp()
	case key.Matches(msg, logKeys.PageDown):
		m.viewer.PageDown()
	case key.Matches(msg, logKeys.Open):
		if sel := m.viewer.SelectedLog(); sel != nil && !m.viewer.IsViewing() {
			return m, m.loadContent(sel.LogID)
		}
	case key.Matches(msg, logKeys.Refresh):
		if !m.viewer.IsViewing() {
			return m, m.loadLogs
		}
	}
	return m, nil
}

// View renders the browser.
func (m Model) View() string {
	header := headerStyle.Render(m.title + " · session logs")

	status := dimStyle.Render("j/k navigate · Enter open · r refresh · q quit")
	if m.err != nil {
		status = errorStyle.Render(m.err.Error())
	}

	return header + "\n" + m.viewer.View() + "\n" + statusBarStyle.Width(m.width).Render(status)
}
