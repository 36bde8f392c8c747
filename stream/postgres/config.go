package postgres

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DSN   string `koanf:"dsn"`
	Table string `koanf:"table"`
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadConfig merges YAML (if present) with env-vars
// (prefix `SHARDLOG_POSTGRES__`, delimiter `__`).
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("postgres schema_version %q not supported (want v1)", sv)
	}

	_ = k.Load(env.Provider("SHARDLOG_POSTGRES__", "__", nil), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.Table == "" {
		cfg.Table = "transactions"
	}
	if !tableName.MatchString(cfg.Table) {
		return cfg, fmt.Errorf("postgres: invalid table name %q", cfg.Table)
	}
	if cfg.DSN == "" {
		return cfg, fmt.Errorf("postgres: dsn is required")
	}
	return cfg, nil
}
