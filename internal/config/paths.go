// Package config handles configuration loading, saving, and path management.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// GlobalDirName is the name of the per-user state directory.
	GlobalDirName = ".program-tray"

	// LogsDirName is the name of the session logs directory.
	LogsDirName = "logs"

	// InstancesDirName is the name of the running-instance registry directory.
	InstancesDirName = "instances"

	// SettingsFileName is the name of the global settings file.
	SettingsFileName = "settings.yaml"
)

// GlobalDir returns the path to the state directory (~/.program-tray/).
func GlobalDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalDirName), nil
}

// GlobalSettingsFile returns the path to ~/.program-tray/settings.yaml.
func GlobalSettingsFile() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// GlobalLogsDir returns the path to the logs directory.
func GlobalLogsDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogsDirName), nil
}

// ProgramLogsDir returns the directory holding session logs for one program.
func ProgramLogsDir(programID string) (string, error) {
	dir, err := GlobalLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileSafe(programID)), nil
}

// LiveOutputFile returns the file mirroring the output of a program's
// current session. Its extension keeps it out of ListLogs.
func LiveOutputFile(programID string) (string, error) {
	dir, err := ProgramLogsDir(programID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "live.out"), nil
}

// InstancesDir returns the path to the instance registry directory.
func InstancesDir() (string, error) {
	dir, err := GlobalDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, InstancesDirName), nil
}

// InstanceFile returns the path to the instance file of a program.
func InstanceFile(programID string) (string, error) {
	dir, err := InstancesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileSafe(programID)+".yaml"), nil
}

// EnsureGlobalDir creates the state directory if it doesn't exist.
func EnsureGlobalDir() error {
	dir, err := GlobalDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// EnsureProgramLogsDir creates the program's logs directory if it doesn't exist.
func EnsureProgramLogsDir(programID string) (string, error) {
	dir, err := ProgramLogsDir(programID)
	if err != nil {
		return "", err
	}
	return dir, os.MkdirAll(dir, 0o755)
}

// fileSafe maps a program ID onto a single path element.
func fileSafe(id string) string {
	if id == "." || id == ".." {
		return strings.Repeat("_", len(id))
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
