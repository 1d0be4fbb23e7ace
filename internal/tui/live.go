package tui

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

const (
	livePollInterval = 250 * time.Millisecond
	maxLiveLines     = 5000
	// maxLiveRead bounds one poll so a burst of output cannot stall the view.
	maxLiveRead = 1 << 20
)

type liveTickMsg struct{}

type liveChunkMsg struct {
	data   []byte
	offset int64
	reset  bool // the file was truncated by a new session
	err    error
}

// LiveModel follows the live output file of a program, like tail -f.
type LiveModel struct {
	title   string
	path    string
	offset  int64
	lines   []string
	partial string
	follow  bool
	output  viewport.Model
	err     error
	width   int
}

// NewLiveModel creates a follower of the given output file.
func NewLiveModel(title, path string) LiveModel {
	return LiveModel{
		title:  title,
		path:   path,
		follow: true,
		output: viewport.New(80, 20),
	}
}

// Init reads what the session has written so far.
func (m LiveModel) Init() tea.Cmd {
	return m.poll
}

func (m LiveModel) poll() tea.Msg {
	data, offset, reset, err := readFrom(m.path, m.offset)
	return liveChunkMsg{data: data, offset: offset, reset: reset, err: err}
}

func schedulePoll() tea.Cmd {
	return tea.Tick(livePollInterval, func(time.Time) tea.Msg { return liveTickMsg{} })
}

// readFrom returns the bytes appended to path since offset. A file shorter
// than offset was truncated and is read from the start; a missing file has
// no output yet.
func readFrom(path string, offset int64) ([]byte, int64, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, offset > 0, nil
	}
	if err != nil {
		return nil, offset, false, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, offset, false, err
	}
	reset := st.Size() < offset
	if reset {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, reset, err
	}
	data, err := io.ReadAll(io.LimitReader(f, maxLiveRead))
	return data, offset + int64(len(data)), reset, err
}

// Update handles messages.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.output.Width = msg.Width
		// Header and status bar take one line each.
		m.output.Height = max(msg.Height-2, 1)
		m.render()

	case liveTickMsg:
		return m, m.poll

	case liveChunkMsg:
		m.err = msg.err
		if msg.err == nil {
			m.offset = msg.offset
			if msg.reset {
				m.lines, m.partial = nil, ""
			}
			m.appendOutput(msg.data)
			if len(msg.data) > 0 || msg.reset {
				m.render()
			}
		}
		return m, schedulePoll()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m LiveModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, logKeys.Quit), key.Matches(msg, logKeys.Back):
		return m, tea.Quit
	case key.Matches(msg, logKeys.Up):
		m.output.LineUp(1)
	case key.Matches(msg, logKeys.Down):
		m.output.LineDown(1)
	case key.Matches(msg, logKeys.PageUp):
		m.output.HalfViewUp()
	case key.Matches(msg, logKeys.PageDown):
		m.output.HalfViewDown()
	case key.Matches(msg, logKeys.Follow):
		m.output.GotoBottom()
	default:
		return m, nil
	}
	m.follow = m.output.AtBottom()
	return m, nil
}

// appendOutput splits raw output into plain lines. Text before a carriage
// return is overwritten by what follows it, as on a terminal.
func (m *LiveModel) appendOutput(data []byte) {
	if len(data) == 0 {
		return
	}
	chunks := strings.Split(m.partial+string(data), "\n")
	m.partial = chunks[len(chunks)-1]
	for _, line := range chunks[:len(chunks)-1] {
		m.lines = append(m.lines, plainLine(line))
	}
	if len(m.lines) > maxLiveLines {
		m.lines = m.lines[len(m.lines)-maxLiveLines:]
	}
}

func plainLine(line string) string {
	line = strings.TrimSuffix(line, "\r")
	if i := strings.LastIndexByte(line, '\r'); i >= 0 {
		line = line[i+1:]
	}
	return ansi.Strip(line)
}

func (m *LiveModel) render() {
	content := strings.Join(m.lines, "\n")
	if tail := plainLine(m.partial); tail != "" {
		content += "\n" + tail
	}
	m.output.SetContent(content)
	if m.follow {
		m.output.GotoBottom()
	}
}

// View renders the output with a header and a status bar.
func (m LiveModel) View() string {
	header := headerStyle.Render(m.title + " · live output")

	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render(m.err.Error())
	case m.offset == 0 && len(m.lines) == 0:
		status = dimStyle.Render("Waiting for output... · q quit")
	case m.follow:
		status = dimStyle.Render("following · j/k scroll · q quit")
	default:
		status = dimStyle.Render("paused · G follow · j/k scroll · q quit")
	}

	return header + "\n" + m.output.View() + "\n" + statusBarStyle.Width(m.width).Render(status)
}
