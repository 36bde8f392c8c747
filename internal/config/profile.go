package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const SupportedSchema = "v1"

// Profile is the top-level shardlog.yml: which driver fronts the stream,
// where its config lives, and the ambient knobs.
type Profile struct {
	SchemaVersion string `yaml:"schema_version"`

	Stream struct {
		Name   string `yaml:"name"`   // stream identity used in errors/logs
		Driver string `yaml:"driver"` // memory|kafka|postgres
		Config string `yaml:"config"` // driver config path, relative to the profile
	} `yaml:"stream"`

	MetricsPort int `yaml:"metrics_port"`
}

// LoadProfile parses a profile YAML, validates schema_version, and returns
// the parsed profile and an absolute path to the driver config (if set).
func LoadProfile(path string) (Profile, string, error) {
	var cfg Profile
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, "", err
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, "", fmt.Errorf("profile schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if cfg.Stream.Name == "" {
		return cfg, "", fmt.Errorf("profile %s: stream.name is required", path)
	}
	if cfg.Stream.Driver == "" {
		return cfg, "", fmt.Errorf("profile %s: stream.driver is required", path)
	}
	confPath := cfg.Stream.Config
	if confPath != "" && !filepath.IsAbs(confPath) {
		confPath = filepath.Join(filepath.Dir(path), confPath)
	}
	return cfg, confPath, nil
}
