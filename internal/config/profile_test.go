package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfile_ResolvesRelativeDriverConfigAndSchema(t *testing.T) {
	dir := t.TempDir()
	prof := []byte(`schema_version: v1
stream:
  name: orders
  driver: kafka
  config: kafka.yml
metrics_port: 9100
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shardlog.yml"), prof, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kafka.yml"), []byte("schema_version: v1\n"), 0o644))

	cfg, abs, err := LoadProfile(filepath.Join(dir, "shardlog.yml"))
	require.NoError(t, err)
	assert.Equal(t, SupportedSchema, cfg.SchemaVersion)
	assert.Equal(t, "orders", cfg.Stream.Name)
	assert.Equal(t, 9100, cfg.MetricsPort)
	assert.True(t, filepath.IsAbs(abs), "driver config path must be absolute, got %q", abs)
}

func TestLoadProfile_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	prof := []byte(`schema_version: v999
stream: { name: orders, driver: memory }
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shardlog.yml"), prof, 0o644))

	_, _, err := LoadProfile(filepath.Join(dir, "shardlog.yml"))
	assert.Error(t, err)
}

func TestLoadProfile_RequiresStreamIdentity(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shardlog.yml"),
		[]byte("stream: { driver: memory }\n"), 0o644))
	_, _, err := LoadProfile(filepath.Join(dir, "shardlog.yml"))
	assert.ErrorContains(t, err, "stream.name")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shardlog.yml"),
		[]byte("stream: { name: orders }\n"), 0o644))
	_, _, err = LoadProfile(filepath.Join(dir, "shardlog.yml"))
	assert.ErrorContains(t, err, "stream.driver")
}
