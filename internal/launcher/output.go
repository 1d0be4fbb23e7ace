package launcher

import (
	"bytes"
	"io"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// maxScrollback bounds the number of retained output lines per session.
const maxScrollback = 5000

// maxLineBytes bounds one line; longer output without a newline is split.
const maxLineBytes = 4096

// outputBuffer collects combined stdout/stderr of one session as plain-text
// lines and mirrors the raw bytes to an optional writer. A carriage return
// not followed by a newline restarts the current line, so progress bars keep
// only their latest state.
type outputBuffer struct {
	mu        sync.Mutex
	mirror    io.Writer
	partial   bytes.Buffer
	pendingCR bool
	lines     []string
}

func newOutputBuffer(mirror io.Writer) *outputBuffer {
	return &outputBuffer{mirror: mirror, lines: make([]string, 0, 256)}
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mirror != nil {
		_, _ = b.mirror.Write(p)
	}

	for _, c := range p {
		switch {
		case c == '\n':
			b.pendingCR = false
			b.flushPartial()
		case c == '\r':
			b.pendingCR = true
		default:
			if b.pendingCR {
				b.partial.Reset()
				b.pendingCR = false
			}
			b.partial.WriteByte(c)
			if b.partial.Len() >= maxLineBytes {
				b.flushPartial()
			}
		}
	}
	return len(p), nil
}

func (b *outputBuffer) flushPartial() {
	b.appendLine(b.partial.String())
	b.partial.Reset()
}

func (b *outputBuffer) appendLine(line string) {
	b.lines = append(b.lines, ansi.Strip(line))
	if len(b.lines) > maxScrollback {
		b.lines = b.lines[len(b.lines)-maxScrollback:]
	}
}

// Lines returns a copy of the scrollback including an unterminated last line.
func (b *outputBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines), len(b.lines)+1)
	copy(out, b.lines)
	if b.partial.Len() > 0 {
		out = append(out, ansi.Strip(b.partial.String()))
	}
	return out
}
