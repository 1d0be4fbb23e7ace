package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/program-tray/program-tray/internal/models"
)

// detailHeaderLines is the height of the block above the log output.
const detailHeaderLines = 4

// LogViewer is a session list with a cursor and a scrollable detail view of
// the opened session.
type LogViewer struct {
	logs   []*models.LogEntry
	loaded bool
	cursor int
	top    int // first visible list row

	open   *models.LogEntry // nil while the list is shown
	output viewport.Model

	width  int
	height int
}

// NewLogViewer creates an empty viewer.
func NewLogViewer() *LogViewer {
	return &LogViewer{output: viewport.New(80, 20)}
}

// SetSize sets the area available to the viewer.
func (l *LogViewer) SetSize(width, height int) {
	l.width, l.height = width, height
	l.output.Width = width
	l.output.Height = max(height-detailHeaderLines, 1)
	l.clampCursor()
}

// SetLogs replaces the session list, keeping the cursor in range.
func (l *LogViewer) SetLogs(logs []*models.LogEntry) {
	l.logs = logs
	l.loaded = true
	l.clampCursor()
}

// SetLogContent opens the detail view of one session.
func (l *LogViewer) SetLogContent(entry *models.LogEntry, content string) {
	l.open = entry
	l.output.SetContent(content)
	l.output.GotoTop()
}

// IsViewing reports whether a session is open.
func (l *LogViewer) IsViewing() bool {
	return l.open != nil
}

// SelectedLog returns the session under the cursor, or nil for an empty list.
func (l *LogViewer) SelectedLog() *models.LogEntry {
	if len(l.logs) == 0 {
		return nil
	}
	return l.logs[l.cursor]
}

// MoveUp moves the cursor, or scrolls the open session.
func (l *LogViewer) MoveUp() {
	if l.IsViewing() {
		l.output.LineUp(1)
		return
	}
	l.cursor--
	l.clampCursor()
}

// MoveDown moves the cursor, or scrolls the open session.
func (l *LogViewer) MoveDown() {
	if l.IsViewing() {
		l.output.LineDown(1)
		return
	}
	l.cursor++
	l.clampCursor()
}

// PageUp scrolls the open session by half a screen.
func (l *LogViewer) PageUp() {
	if l.IsViewing() {
		l.output.HalfViewUp()
	}
}

// PageDown scrolls the open session by half a screen.
func (l *LogViewer) PageDown() {
	if l.IsViewing() {
		l.output.HalfViewDown()
	}
}

// GoBack closes the open session.
func (l *LogViewer) GoBack() {
	l.open = nil
}

// clampCursor keeps the cursor on an existing row and inside the visible window.
func (l *LogViewer) clampCursor() {
	l.cursor = min(max(l.cursor, 0), max(len(l.logs)-1, 0))
	if l.cursor < l.top {
		l.top = l.cursor
	}
	if rows := l.listRows(); rows > 0 && l.cursor >= l.top+rows {
		l.top = l.cursor - rows + 1
	}
}

func (l *LogViewer) listRows() int {
	return l.height
}

// View renders the list or the open session.
func (l *LogViewer) View() string {
	if l.IsViewing() {
		return l.viewDetail()
	}
	return l.viewList()
}

func (l *LogViewer) viewList() string {
	placeholder := dimStyle.Width(l.width).Align(lipgloss.Center)
	switch {
	case !l.loaded:
		return placeholder.Render("\nLoading logs...")
	case len(l.logs) == 0:
		return placeholder.Render("\nNo session logs yet.")
	}

	end := len(l.logs)
	if rows := l.listRows(); rows > 0 {
		end = min(end, l.top+rows)
	}

	var b strings.Builder
	if l.top > 0 {
		b.WriteString(dimStyle.Render("  ▲ more") + "\n")
	}
	for i := l.top; i < end; i++ {
		if i > l.top {
			b.WriteByte('\n')
		}
		if i == l.cursor {
			b.WriteString(selectedItemStyle.Width(l.width).Render("> " + formatLogLine(l.logs[i])))
		} else {
			b.WriteString("  " + formatLogLine(l.logs[i]))
		}
	}
	if end < len(l.logs) {
		b.WriteString("\n" + dimStyle.Render("  ▼ more"))
	}
	return b.String()
}

// formatLogLine renders e.g. "2026-03-01 10:00  openvpn --config x  (crashed, exit 1)".
func formatLogLine(entry *models.LogEntry) string {
	started := entry.StartedAt
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		started = t.Local().Format("2006-01-02 15:04")
	}

	return fmt.Sprintf("%s  %s  %s",
		dimStyle.Render(started),
		commandStyle.Render(entry.Command),
		statusStyle(entry.Status).Render("("+statusText(entry)+")"),
	)
}

func statusText(entry *models.LogEntry) string {
	if entry.ExitCode != 0 {
		return fmt.Sprintf("%s, exit %d", entry.Status, entry.ExitCode)
	}
	return entry.Status
}

// sessionDuration is the wall time of a session, or "" when a timestamp is missing.
func sessionDuration(entry *models.LogEntry) string {
	start, err1 := time.Parse(time.RFC3339, entry.StartedAt)
	end, err2 := time.Parse(time.RFC3339, entry.EndedAt)
	if err1 != nil || err2 != nil {
		return ""
	}
	return end.Sub(start).String()
}

func (l *LogViewer) viewDetail() string {
	e := l.open

	summary := statusStyle(e.Status).Render(statusText(e))
	if d := sessionDuration(e); d != "" {
		summary += dimStyle.Render("  ran " + d)
	}

	lines := []string{
		commandStyle.Render(e.Command),
		dimStyle.Render(e.StartedAt+" → "+e.EndedAt) + "  " + summary,
		dimStyle.Render("Esc to go back · PgUp/PgDn to scroll"),
		dimStyle.Render(strings.Repeat("─", l.width)),
	}
	return strings.Join(lines, "\n") + "\n" + l.output.View()
}
