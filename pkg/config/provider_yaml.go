package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements SettingsProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadSettings reads the YAML file on top of the defaults. Keys missing
// from the file keep their default values, and a missing file yields the
// defaults unchanged.
func (y *YAMLProvider) LoadSettings() (*Settings, error) {
	settings := DefaultSettings()

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(cfgFile, settings); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", y.filename, err)
	}

	return settings, nil
}

// IsReadOnly returns true since YAML files are edited by hand
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
