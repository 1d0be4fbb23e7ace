package models

// LogEntry represents metadata for a single program session log.
type LogEntry struct {
	LogID     string `yaml:"log_id"`
	ProgramID string `yaml:"program_id"`
	SessionID string `yaml:"session_id"`
	Command   string `yaml:"command"`
	StartedAt string `yaml:"started_at"`
	EndedAt   string `yaml:"ended_at"`
	Status    string `yaml:"status"` // "completed" | "stopped" | "crashed"
	ExitCode  int    `yaml:"exit_code"`
}
