package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "github.com/courselab/langs/internal/model"
)

// ConfigParseError means the per-exercise configuration file exists but
// could not be parsed. It is surfaced, not recovered.
type ConfigParseError struct {
	Path m.Path
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("malformed project config %q: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// LoadProjectConfig reads the project configuration from the given
// exercise root. A missing file yields (zero config, false, nil).
func LoadProjectConfig(root m.Path) (m.ProjectConfig, bool, error) {
	path := filepath.Join(string(root), m.ProjectConfigFile)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no project config found", "root", root)
		return m.ProjectConfig{}, false, nil
	}

	if err != nil {
		return m.ProjectConfig{}, false, fmt.Errorf("reading project config %q: %w", path, err)
	}

	var config m.ProjectConfig
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return m.ProjectConfig{}, false, &ConfigParseError{Path: m.Path(path), Err: err}
	}

	slog.Debug("loaded project config", "root", root)

	return config, true, nil
}

// LoadProjectConfigOrDefault reads the exercise's configuration and
// fills unset fields from a course level config file in the parent
// directory, when one exists. Both files absent yields the zero value.
func LoadProjectConfigOrDefault(root m.Path) (m.ProjectConfig, error) {
	config, _, err := LoadProjectConfig(root)
	if err != nil {
		return m.ProjectConfig{}, err
	}

	parent := filepath.Dir(string(root))
	if parent == string(root) {
		return config, nil
	}

	outer, found, err := LoadProjectConfig(m.Path(parent))
	if err != nil {
		return m.ProjectConfig{}, err
	}

	if found {
		config.Merge(outer)
	}

	return config, nil
}

// SaveProjectConfig writes the configuration into the given directory.
func SaveProjectConfig(dir m.Path, config m.ProjectConfig) error {
	raw, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}

	path := filepath.Join(string(dir), m.ProjectConfigFile)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing project config %q: %w", path, err)
	}

	return nil
}
