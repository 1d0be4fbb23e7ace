package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	program := filepath.Join(dir, "vpn.toml")
	envFile := filepath.Join(dir, ".env")
	write(t, program, `id = "vpn"`)
	write(t, envFile, "A=1")

	w, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Stop()

	if err := w.WatchFile(program, EventProgramChanged); err != nil {
		t.Fatalf("WatchFile() error = %v", err)
	}
	if err := w.WatchFile(envFile, EventEnvFileChanged); err != nil {
		t.Fatalf("WatchFile() error = %v", err)
	}
	w.Start()

	tests := []struct {
		name string
		path string
		want EventType
	}{
		{name: "program edited", path: program, want: EventProgramChanged},
		{name: "env file edited", path: envFile, want: EventEnvFileChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Unrelated files in the same directory are ignored.
			write(t, filepath.Join(dir, "notes.txt"), "x")
			write(t, tt.path, "changed")

			ev := nextEvent(t, w)
			if ev.Type != tt.want || ev.Path != tt.path {
				t.Errorf("event = %+v, want %v for %s", ev, tt.want, tt.path)
			}
		})
	}
}

func TestWatchFileDebounces(t *testing.T) {
	dir := t.TempDir()
	program := filepath.Join(dir, "vpn.toml")
	write(t, program, "")

	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.WatchFile(program, EventProgramChanged); err != nil {
		t.Fatal(err)
	}
	w.Start()

	for i := 0; i < 5; i++ {
		write(t, program, "burst")
	}
	nextEvent(t, w)

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected second event %+v", ev)
	case <-time.After(4 * debounceDelay):
	}
}

func TestWatchFileMissingDir(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := w.WatchFile(filepath.Join(t.TempDir(), "nope", "vpn.toml"), EventProgramChanged); err == nil {
		t.Error("WatchFile() error = nil for missing directory")
	}
}
