package models

import "time"

// InstanceInfo records a running tray instance.
// This corresponds to ~/.program-tray/instances/<id>.yaml.
type InstanceInfo struct {
	Version    int       `yaml:"version"`
	ProgramID  string    `yaml:"program_id"`
	ConfigPath string    `yaml:"config_path"`
	PID        int       `yaml:"pid"`
	StartedAt  time.Time `yaml:"started_at"`
}

// NewInstanceInfo creates instance info with current values.
func NewInstanceInfo(programID, configPath string, pid int) *InstanceInfo {
	return &InstanceInfo{
		Version:    1,
		ProgramID:  programID,
		ConfigPath: configPath,
		PID:        pid,
		StartedAt:  time.Now().UTC(),
	}
}
