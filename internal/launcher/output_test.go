package launcher

import (
	"bytes"
	"reflect"
	"testing"
)

func TestOutputBuffer(t *testing.T) {
	var mirror bytes.Buffer
	b := newOutputBuffer(&mirror)

	chunks := []string{"first li", "ne\r\n\x1b[31mred\x1b[0m\nsec", "ond"}
	for _, c := range chunks {
		if _, err := b.Write([]byte(c)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	want := []string{"first line", "red", "second"}
	if got := b.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %q, want %q", got, want)
	}
	if mirror.String() != "first line\r\n\x1b[31mred\x1b[0m\nsecond" {
		t.Errorf("mirror = %q", mirror.String())
	}
}

func TestOutputBufferBounded(t *testing.T) {
	b := newOutputBuffer(nil)
	for i := 0; i < maxScrollback+10; i++ {
		b.Write([]byte("x\n"))
	}
	if n := len(b.Lines()); n != maxScrollback {
		t.Errorf("len(Lines()) = %d, want %d", n, maxScrollback)
	}
}

func TestOutputBufferCarriageReturn(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []string
	}{
		{
			name:   "progress bar",
			chunks: []string{"10%\r", "50%\r", "100%\ndone\n"},
			want:   []string{"100%", "done"},
		},
		{
			name:   "unterminated progress",
			chunks: []string{"downloading 1/3\rdownloading 2/3\r"},
			want:   []string{"downloading 2/3"},
		},
		{
			name:   "crlf split across writes",
			chunks: []string{"a\r", "\nb\r\n"},
			want:   []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newOutputBuffer(nil)
			for _, c := range tt.chunks {
				b.Write([]byte(c))
			}
			if got := b.Lines(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Lines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputBufferLongLine(t *testing.T) {
	b := newOutputBuffer(nil)
	b.Write(bytes.Repeat([]byte("y"), maxLineBytes*2+10))

	lines := b.Lines()
	if len(lines) != 3 {
		t.Fatalf("len(Lines()) = %d, want 3", len(lines))
	}
	if len(lines[0]) != maxLineBytes || len(lines[1]) != maxLineBytes || len(lines[2]) != 10 {
		t.Errorf("line lengths = %d, %d, %d", len(lines[0]), len(lines[1]), len(lines[2]))
	}
	if b.partial.Len() > maxLineBytes {
		t.Errorf("partial holds %d bytes", b.partial.Len())
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root"}
	got := mergeEnv(base, []string{"HOME=/home/a", "EXTRA=1=2"})

	want := []string{"PATH=/bin", "HOME=/home/a", "EXTRA=1=2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeEnv() = %q, want %q", got, want)
	}
	if base[1] != "HOME=/root" {
		t.Error("mergeEnv() modified its input")
	}
}

func TestParseSignal(t *testing.T) {
	for _, name := range []string{"SIGINT", "sigterm", "SIGKILL"} {
		if _, err := ParseSignal(name); err != nil {
			t.Errorf("ParseSignal(%q) error = %v", name, err)
		}
	}
	if _, err := ParseSignal("SIGWINCH"); err == nil {
		t.Error("ParseSignal(SIGWINCH) error = nil")
	}
}
