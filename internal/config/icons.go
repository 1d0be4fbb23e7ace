package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/program-tray/program-tray/internal/models"
)

//go:embed icons/on.png
var defaultOnIcon []byte

//go:embed icons/off.png
var defaultOffIcon []byte

// IconSet holds the image data shown for each tray state.
type IconSet struct {
	On  []byte
	Off []byte
}

// LoadIcons reads the program's icon files, falling back to the built-in
// icons for unset ones. Relative paths resolve against the config file.
func LoadIcons(p *models.Program) (*IconSet, error) {
	dir := ""
	if p.Path != "" {
		dir = filepath.Dir(p.Path)
	}

	on, err := loadIcon(p.UI.Icons.On, dir, defaultOnIcon)
	if err != nil {
		return nil, &Error{Kind: MalformedSource, Path: p.Path, Field: "ui.icons.on", Err: err}
	}
	off, err := loadIcon(p.UI.Icons.Off, dir, defaultOffIcon)
	if err != nil {
		return nil, &Error{Kind: MalformedSource, Path: p.Path, Field: "ui.icons.off", Err: err}
	}
	return &IconSet{On: on, Off: off}, nil
}

func loadIcon(path, dir string, fallback []byte) ([]byte, error) {
	if path == "" {
		return fallback, nil
	}
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".png") {
		if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return data, nil
}
