package models

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DialogConfig holds secret dialog settings.
type DialogConfig struct {
	Tool string `yaml:"tool" validate:"omitempty,oneof=zenity kdialog osascript|startswith=/"` // "" = first of zenity, kdialog, osascript found in PATH
}

// LogsConfig holds session log settings.
type LogsConfig struct {
	Keep int `yaml:"keep" validate:"gte=0"` // session logs kept per program, 0 = all
}

// Settings represents global program-tray settings.
// This corresponds to ~/.program-tray/settings.yaml.
type Settings struct {
	Version       int                 `yaml:"version" validate:"lte=1"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Dialog        DialogConfig        `yaml:"dialog"`
	Logs          LogsConfig          `yaml:"logs"`
}

// SettingsVersion is the settings file format written by this build.
const SettingsVersion = 1

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:       SettingsVersion,
		Notifications: NotificationsConfig{Enabled: true},
		Logs:          LogsConfig{Keep: 50},
	}
}
