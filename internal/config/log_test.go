package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/program-tray/program-tray/internal/models"
)

func TestWriteAndReadLog(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entry, err := WriteLog(models.LogEntry{
		ProgramID: "vpn/office",
		SessionID: "0123456789abcdef",
		Command:   "openvpn --config office.ovpn",
		Status:    "crashed",
		ExitCode:  3,
	}, started, []string{"line one", "line two"})
	if err != nil {
		t.Fatalf("WriteLog() error = %v", err)
	}
	if entry.LogID != "2026-03-01T10-00-00-01234567" {
		t.Errorf("LogID = %q", entry.LogID)
	}

	logs, err := ListLogs("vpn/office")
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("ListLogs() returned %d entries, want 1", len(logs))
	}
	if logs[0].Status != "crashed" || logs[0].ExitCode != 3 {
		t.Errorf("listed entry = %+v", logs[0])
	}

	got, body, err := ReadLog("vpn/office", entry.LogID)
	if err != nil {
		t.Fatalf("ReadLog() error = %v", err)
	}
	if got.Command != "openvpn --config office.ovpn" {
		t.Errorf("Command = %q", got.Command)
	}
	if !strings.Contains(body, "line one\nline two") {
		t.Errorf("body = %q", body)
	}
}

func TestListLogsEmpty(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	logs, err := ListLogs("nothing")
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if logs != nil {
		t.Errorf("ListLogs() = %v, want nil", logs)
	}
}

func TestListLogsNewestFirst(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	for i, day := range []int{1, 3, 2} {
		_, err := WriteLog(models.LogEntry{
			ProgramID: "p",
			SessionID: strings.Repeat(string(rune('a'+i)), 8),
			Status:    "completed",
		}, time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC), nil)
		if err != nil {
			t.Fatalf("WriteLog() error = %v", err)
		}
	}

	logs, err := ListLogs("p")
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("ListLogs() returned %d entries", len(logs))
	}
	if !strings.HasPrefix(logs[0].LogID, "2026-01-03") || !strings.HasPrefix(logs[2].LogID, "2026-01-01") {
		t.Errorf("order = %s, %s, %s", logs[0].LogID, logs[1].LogID, logs[2].LogID)
	}
}

func TestPruneLogs(t *testing.T) {
	tests := []struct {
		name        string
		keep        int
		wantRemoved int
		wantLeft    int
	}{
		{name: "keep all", keep: 0, wantRemoved: 0, wantLeft: 4},
		{name: "under limit", keep: 10, wantRemoved: 0, wantLeft: 4},
		{name: "prune oldest", keep: 2, wantRemoved: 2, wantLeft: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			for day := 1; day <= 4; day++ {
				_, err := WriteLog(models.LogEntry{ProgramID: "p", SessionID: "abcdefgh", Status: "completed"},
					time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC), nil)
				if err != nil {
					t.Fatalf("WriteLog() error = %v", err)
				}
			}

			removed, err := PruneLogs("p", tt.keep)
			if err != nil {
				t.Fatalf("PruneLogs() error = %v", err)
			}
			if removed != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", removed, tt.wantRemoved)
			}

			logs, _ := ListLogs("p")
			if len(logs) != tt.wantLeft {
				t.Fatalf("%d logs left, want %d", len(logs), tt.wantLeft)
			}
			if !strings.HasPrefix(logs[0].LogID, "2026-01-04") {
				t.Errorf("newest log %s was pruned", logs[0].LogID)
			}
		})
	}
}

func TestLogHeaderQuoting(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	command := "sh -c 'echo \"a: b\"\necho ---'"
	entry, err := WriteLog(models.LogEntry{ProgramID: "p", SessionID: "abcdefgh", Command: command, Status: "stopped"},
		time.Now(), []string{"---", "out"})
	if err != nil {
		t.Fatalf("WriteLog() error = %v", err)
	}

	got, body, err := ReadLog("p", entry.LogID)
	if err != nil {
		t.Fatalf("ReadLog() error = %v", err)
	}
	if got.Command != command {
		t.Errorf("Command = %q, want %q", got.Command, command)
	}
	if body != "---\nout\n" {
		t.Errorf("body = %q", body)
	}
}

func TestListLogsSkipsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := WriteLog(models.LogEntry{ProgramID: "p", SessionID: "abcdefgh", Status: "completed"}, time.Now(), nil); err != nil {
		t.Fatalf("WriteLog() error = %v", err)
	}
	dir, err := ProgramLogsDir("p")
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		"no-header.log": "just output\n",
		"unclosed.log":  "---\nstatus: crashed\n",
		"notes.txt":     "---\n---\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	logs, err := ListLogs("p")
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("ListLogs() returned %d entries, want 1", len(logs))
	}

	if _, _, err := ReadLog("p", "unclosed"); !errors.Is(err, ErrInvalidLog) {
		t.Errorf("ReadLog(unclosed) error = %v, want ErrInvalidLog", err)
	}
}
