package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/program-tray/program-tray/internal/models"
)

// LoadInstance returns the registered tray of a program, or nil when none is registered.
func LoadInstance(programID string) (*models.InstanceInfo, error) {
	path, err := InstanceFile(programID)
	if err != nil {
		return nil, err
	}

	var info models.InstanceInfo
	if err := LoadYAML(path, &info); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

// ErrInstanceRunning is returned by ClaimInstance while another live tray
// manages the program.
var ErrInstanceRunning = errors.New("program is already managed by another tray")

const (
	// claimSettle is how long an unreadable claim is trusted to be mid-write.
	claimSettle   = 5 * time.Second
	claimAttempts = 3
)

// ClaimInstance registers info as the tray of its program. The file is created
// exclusively, so of two trays racing for one program only one succeeds. A
// claim left by a dead process is replaced. While another tray is alive it
// returns that tray's info, when readable, with ErrInstanceRunning.
func ClaimInstance(info *models.InstanceInfo) (*models.InstanceInfo, error) {
	path, err := InstanceFile(info.ProgramID)
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal instance info: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	for range claimAttempts {
		err := createExclusive(path, data)
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		if owner, live := inspectClaim(path); live {
			return owner, ErrInstanceRunning
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, ErrInstanceRunning
}

func createExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write instance info: %w", err)
	}
	return f.Close()
}

// inspectClaim reports the owner of an existing claim and whether it is alive.
// A claim without a PID is still being written while it is fresh.
func inspectClaim(path string) (*models.InstanceInfo, bool) {
	var owner models.InstanceInfo
	if err := LoadYAML(path, &owner); err == nil && owner.PID > 0 {
		return &owner, processAlive(owner.PID)
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	return nil, time.Since(st.ModTime()) < claimSettle
}

// RemoveInstance unregisters the tray of a program. A missing file is not an error.
func RemoveInstance(programID string) error {
	path, err := InstanceFile(programID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// IsInstanceRunning reports whether the registered tray of a program is alive.
// A registration left behind by a dead process is removed.
func IsInstanceRunning(programID string) (bool, *models.InstanceInfo, error) {
	info, err := LoadInstance(programID)
	if err != nil || info == nil {
		return false, nil, err
	}

	if !processAlive(info.PID) {
		// A claim without a PID belongs to a tray that is still writing it.
		if info.PID > 0 {
			_ = RemoveInstance(programID)
		}
		return false, info, nil
	}
	return true, info, nil
}

// processAlive checks pid with signal 0.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	// EPERM means the process exists but belongs to another user.
	return err == nil || errors.Is(err, syscall.EPERM)
}
