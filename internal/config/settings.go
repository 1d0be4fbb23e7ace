package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/program-tray/program-tray/internal/models"
)

// LoadSettings loads ~/.program-tray/settings.yaml over the defaults.
// A missing file yields the defaults; an invalid one is a MalformedSource error.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	s, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, &Error{Kind: MalformedSource, Path: path, Err: err}
	}
	if err := ValidateSettings(s); err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			cerr.Path = path
		}
		return nil, err
	}
	return s, nil
}

// ValidateSettings checks the dialog tool, the log count and the file version.
// A version of 0 comes from files written before versioning and is upgraded.
func ValidateSettings(s *models.Settings) error {
	s.Dialog.Tool = strings.TrimSpace(s.Dialog.Tool)
	if s.Version == 0 {
		s.Version = models.SettingsVersion
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &Error{
				Kind:  MalformedSource,
				Field: strings.TrimPrefix(fe.Namespace(), "Settings."),
				Err:   fmt.Errorf("invalid value %v", fe.Value()),
			}
		}
		return &Error{Kind: MalformedSource, Err: err}
	}
	return nil
}

// SaveSettings validates and writes ~/.program-tray/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	if err := ValidateSettings(settings); err != nil {
		return err
	}
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}
