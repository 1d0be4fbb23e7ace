package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/program-tray/program-tray/internal/models"
	"github.com/program-tray/program-tray/internal/placeholder"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their file key rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := f.Tag.Get("toml")
		if tag == "" {
			tag = f.Tag.Get("yaml")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadProgram reads, parses and validates a program file. Relative workdir and
// env_file paths are resolved against the file's directory.
func LoadProgram(path string) (*models.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: MalformedSource, Path: path, Err: err}
	}

	p, err := ParseProgram(data, FormatFor(path))
	if err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p.Path = path

	if err := resolveFiles(p, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseProgram decodes and validates a program description.
func ParseProgram(data []byte, format Format) (*models.Program, error) {
	var p models.Program
	if err := Unmarshal(data, format, &p); err != nil {
		return nil, &Error{Kind: MalformedSource, Err: err}
	}
	if err := ValidateProgram(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ValidateProgram checks required fields and that every placeholder resolves.
// The secret placeholder is only allowed in the input template.
func ValidateProgram(p *models.Program) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "Program.")
			if fe.Tag() == "required" {
				return &Error{Kind: MissingField, Field: field}
			}
			return &Error{Kind: MalformedSource, Field: field, Err: fmt.Errorf("failed %q check with value %v", fe.Tag(), fe.Value())}
		}
		return &Error{Kind: MalformedSource, Err: err}
	}

	if strings.TrimSpace(p.ID) == "" {
		return &Error{Kind: MissingField, Field: "id"}
	}
	if strings.TrimSpace(p.Command) == "" {
		return &Error{Kind: MissingField, Field: "command"}
	}

	if p.StopTimeout != "" {
		d, err := time.ParseDuration(p.StopTimeout)
		if err != nil {
			return &Error{Kind: MalformedSource, Field: "stop_timeout", Err: err}
		}
		if d < 0 {
			return &Error{Kind: MalformedSource, Field: "stop_timeout", Err: fmt.Errorf("negative duration %s", d)}
		}
		p.SetStopGrace(d)
	}

	secret := p.SecretName()
	if placeholder.Contains(p.Command, secret) {
		return &Error{
			Kind:  UnresolvedPlaceholder,
			Field: "command",
			Err:   fmt.Errorf("secret placeholder $%s may only be used in input", secret),
		}
	}
	if missing := placeholder.Unresolved(p.Command, p.Args); len(missing) > 0 {
		return &Error{
			Kind:  UnresolvedPlaceholder,
			Field: "command",
			Err:   fmt.Errorf("no value in args for %s", placeholder.Format(missing)),
		}
	}
	if missing := placeholder.Unresolved(p.Input, p.Args, secret); len(missing) > 0 {
		return &Error{
			Kind:  UnresolvedPlaceholder,
			Field: "input",
			Err:   fmt.Errorf("no value in args for %s", placeholder.Format(missing)),
		}
	}
	return nil
}

// resolveFiles anchors relative paths at dir and merges env_file variables
// beneath the explicit env table.
func resolveFiles(p *models.Program, dir string) error {
	if p.WorkDir != "" && !filepath.IsAbs(p.WorkDir) {
		p.WorkDir = filepath.Join(dir, p.WorkDir)
	}

	if p.EnvFile == "" {
		return nil
	}
	envPath := p.EnvFile
	if !filepath.IsAbs(envPath) {
		envPath = filepath.Join(dir, envPath)
	}
	fileEnv, err := godotenv.Read(envPath)
	if err != nil {
		return &Error{Kind: MalformedSource, Path: p.Path, Field: "env_file", Err: err}
	}
	if p.Env == nil {
		p.Env = make(map[string]string, len(fileEnv))
	}
	for k, v := range fileEnv {
		if _, ok := p.Env[k]; !ok {
			p.Env[k] = v
		}
	}
	return nil
}
