// internal/config/load.go
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file. It does not validate.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(bytes.NewReader(b))
}

// Parse decodes a YAML config document. Unknown fields are rejected.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Provider yields the settings of the next operation.
type Provider interface {
	Settings() (Settings, error)
}

// Static always returns the same settings.
type Static Settings

func (s Static) Settings() (Settings, error) { return Settings(s), nil }

// FileProvider re-reads its file on every call, so each operation
// sees the configuration current at its start.
type FileProvider struct {
	Path string
}

func (p FileProvider) Settings() (Settings, error) {
	cfg, err := Load(p.Path)
	if err != nil {
		return Settings{}, err
	}
	if err := Validate(cfg); err != nil {
		return Settings{}, err
	}
	Normalize(cfg)
	return SettingsFrom(cfg), nil
}
