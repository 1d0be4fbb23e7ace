// Package models contains shared data structures used across the application.
package models

import (
	"sort"
	"time"
)

// Defaults applied by config.LoadProgram when the corresponding keys are absent.
const (
	DefaultSecretName  = "password"
	DefaultSecretLabel = "Password"
	DefaultStopSignal  = "SIGINT"
	DefaultStopTimeout = 5 * time.Second
)

// Program is the wrapped command description loaded from a TOML or YAML file.
// It is created once at startup and treated as read-only afterwards.
type Program struct {
	ID          string            `toml:"id" yaml:"id" validate:"required"`
	Command     string            `toml:"command" yaml:"command" validate:"required"`
	Input       string            `toml:"input" yaml:"input"`
	Superuser   bool              `toml:"superuser" yaml:"superuser"`
	WorkDir     string            `toml:"workdir" yaml:"workdir"`
	Args        map[string]string `toml:"args" yaml:"args"`
	Env         map[string]string `toml:"env" yaml:"env" validate:"dive,keys,required,excludesall==,endkeys"`
	EnvFile     string            `toml:"env_file" yaml:"env_file"`
	StopSignal  string            `toml:"stop_signal" yaml:"stop_signal" validate:"omitempty,oneof=SIGINT SIGTERM SIGHUP SIGQUIT SIGKILL"`
	StopTimeout string            `toml:"stop_timeout" yaml:"stop_timeout"`
	Secret      Secret            `toml:"secret" yaml:"secret"`
	UI          UI                `toml:"ui" yaml:"ui"`

	// Path is the file the program was loaded from. Not part of the file itself.
	Path string `toml:"-" yaml:"-"`

	stopTimeout    time.Duration
	stopTimeoutSet bool
}

// Secret describes the reserved placeholder that is prompted for at start time
// and delivered on standard input.
type Secret struct {
	Name     string `toml:"name" yaml:"name"`
	Label    string `toml:"label" yaml:"label"`
	Remember bool   `toml:"remember" yaml:"remember"`
}

// UI holds tray presentation metadata.
type UI struct {
	Title string `toml:"title" yaml:"title"`
	Icons Icons  `toml:"icons" yaml:"icons"`
}

// Icons holds optional icon file paths for both tray states.
type Icons struct {
	On  string `toml:"on" yaml:"on"`
	Off string `toml:"off" yaml:"off"`
}

// Title returns the display title, falling back to the program ID.
func (p *Program) Title() string {
	if p.UI.Title != "" {
		return p.UI.Title
	}
	return p.ID
}

// SecretName returns the reserved secret placeholder name.
func (p *Program) SecretName() string {
	if p.Secret.Name != "" {
		return p.Secret.Name
	}
	return DefaultSecretName
}

// SecretLabel returns the prompt label for the secret.
func (p *Program) SecretLabel() string {
	if p.Secret.Label != "" {
		return p.Secret.Label
	}
	return DefaultSecretLabel
}

// Signal returns the configured stop signal name.
func (p *Program) Signal() string {
	if p.StopSignal != "" {
		return p.StopSignal
	}
	return DefaultStopSignal
}

// StopGrace returns how long a stopped process may linger before it is killed.
// An explicit zero kills right after the stop signal.
func (p *Program) StopGrace() time.Duration {
	if p.stopTimeoutSet {
		return p.stopTimeout
	}
	return DefaultStopTimeout
}

// SetStopGrace records the parsed stop_timeout value.
func (p *Program) SetStopGrace(d time.Duration) {
	p.stopTimeout = d
	p.stopTimeoutSet = true
}

// EnvList returns the configured environment as sorted KEY=VALUE pairs.
func (p *Program) EnvList() []string {
	keys := make([]string, 0, len(p.Env))
	for k := range p.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+p.Env[k])
	}
	return env
}
