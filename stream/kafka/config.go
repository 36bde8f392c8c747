package kafka

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	Version  string   `koanf:"version"`
	TLSEn    bool     `koanf:"tls_enabled"`
	SASLUser string   `koanf:"sasl_user"`
	SASLPass string   `koanf:"sasl_pass"`

	// FetchWait bounds how long a single record read waits for data before
	// reporting "nothing available".
	FetchWait time.Duration `koanf:"fetch_wait"`
}

// LoadConfig merges YAML (if present) with env-vars
// (prefix `SHARDLOG_KAFKA__`, delimiter `__`).
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	// schema version check (only when YAML is present)
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("kafka schema_version %q not supported (want v1)", sv)
	}

	_ = k.Load(env.Provider("SHARDLOG_KAFKA__", "__", nil), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	if len(cfg.Brokers) == 0 {
		return cfg, fmt.Errorf("kafka: brokers are required")
	}
	if cfg.Topic == "" {
		return cfg, fmt.Errorf("kafka: topic is required")
	}
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.Version == "" {
		c.Version = "3.6.0"
	}
	if c.FetchWait == 0 {
		c.FetchWait = 250 * time.Millisecond
	}
}
