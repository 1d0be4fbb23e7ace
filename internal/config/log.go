package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/program-tray/program-tray/internal/models"
)

const (
	logExt        = ".log"
	headerDivider = "---"
)

// ErrInvalidLog is returned for a log file without a complete YAML header.
var ErrInvalidLog = errors.New("invalid session log")

// WriteLog stores one session as a YAML header followed by the scrollback
// and returns the entry with its log id, start and end times filled in.
func WriteLog(entry models.LogEntry, startedAt time.Time, scrollback []string) (*models.LogEntry, error) {
	logsDir, err := EnsureProgramLogsDir(entry.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure logs dir: %w", err)
	}

	entry.LogID = newLogID(startedAt, entry.SessionID)
	entry.StartedAt = startedAt.UTC().Format(time.RFC3339)
	entry.EndedAt = time.Now().UTC().Format(time.RFC3339)

	header, err := yaml.Marshal(&entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log header: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(headerDivider + "\n")
	buf.Write(header)
	buf.WriteString(headerDivider + "\n")
	for _, line := range scrollback {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(filepath.Join(logsDir, entry.LogID+logExt), buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write log file: %w", err)
	}
	return &entry, nil
}

// CreateLiveOutput truncates and opens the live output file of a program.
func CreateLiveOutput(programID string) (*os.File, error) {
	if _, err := EnsureProgramLogsDir(programID); err != nil {
		return nil, fmt.Errorf("failed to ensure logs dir: %w", err)
	}
	path, err := LiveOutputFile(programID)
	if err != nil {
		return nil, err
	}
	return os.Create(path)
}

// newLogID names a log after its start time and the session id prefix, so
// ids sort chronologically.
func newLogID(startedAt time.Time, sessionID string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return startedAt.UTC().Format("2006-01-02T15-04-05") + "-" + short
}

// ListLogs returns the headers of a program's session logs, newest first.
// Files that are not session logs are skipped.
func ListLogs(programID string) ([]*models.LogEntry, error) {
	logsDir, err := ProgramLogsDir(programID)
	if err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(logsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var logs []*models.LogEntry
	for _, e := range dirEntries {
		if e.IsDir() || filepath.Ext(e.Name()) != logExt {
			continue
		}
		entry, _, err := openLog(filepath.Join(logsDir, e.Name()), false)
		if err != nil {
			continue
		}
		logs = append(logs, entry)
	}

	sort.Slice(logs, func(i, j int) bool {
		if logs[i].StartedAt != logs[j].StartedAt {
			return logs[i].StartedAt > logs[j].StartedAt
		}
		return logs[i].LogID > logs[j].LogID
	})
	return logs, nil
}

// PruneLogs deletes all but the newest keep session logs of a program and
// returns how many were removed. keep <= 0 keeps everything.
func PruneLogs(programID string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	logs, err := ListLogs(programID)
	if err != nil || len(logs) <= keep {
		return 0, err
	}

	logsDir, err := ProgramLogsDir(programID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range logs[keep:] {
		err := os.Remove(filepath.Join(logsDir, entry.LogID+logExt))
		if err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// ReadLog returns the header and the recorded output of one session log.
func ReadLog(programID, logID string) (*models.LogEntry, string, error) {
	logsDir, err := ProgramLogsDir(programID)
	if err != nil {
		return nil, "", err
	}

	// Base keeps a user-supplied id inside the logs directory.
	path := filepath.Join(logsDir, filepath.Base(logID)+logExt)
	entry, body, err := openLog(path, true)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read log %s: %w", logID, err)
	}
	return entry, body, nil
}

// openLog parses the header of a log file and, with withBody, the rest of it.
func openLog(path string, withBody bool) (*models.LogEntry, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	entry, err := readHeader(r)
	if err != nil {
		return nil, "", err
	}
	entry.LogID = strings.TrimSuffix(filepath.Base(path), logExt)

	if !withBody {
		return entry, "", nil
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	return entry, string(body), nil
}

// readHeader consumes the divider-fenced YAML header.
func readHeader(r *bufio.Reader) (*models.LogEntry, error) {
	var header bytes.Buffer
	opened := false
	for {
		line, err := r.ReadString('\n')
		if strings.TrimRight(line, "\r\n") == headerDivider {
			if opened {
				break
			}
			opened = true
		} else if !opened {
			return nil, ErrInvalidLog
		} else {
			header.WriteString(line)
		}
		if err != nil {
			return nil, ErrInvalidLog
		}
	}

	var entry models.LogEntry
	if err := yaml.Unmarshal(header.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLog, err)
	}
	return &entry, nil
}
