package kafka

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`schema_version: v1
brokers: ["localhost:9092"]
topic: transactions
`)
	path := filepath.Join(dir, "kafka.yml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, "transactions", cfg.Topic)
	assert.Equal(t, "3.6.0", cfg.Version)
	assert.Equal(t, 250*time.Millisecond, cfg.FetchWait)
}

func TestLoadConfig_RequiresBrokersAndTopic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kafka.yml")

	require.NoError(t, os.WriteFile(path, []byte("topic: transactions\n"), 0o644))
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "brokers")

	require.NoError(t, os.WriteFile(path, []byte("brokers: [\"localhost:9092\"]\n"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "topic")
}

func TestLoadConfig_RejectsUnknownSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kafka.yml")
	require.NoError(t, os.WriteFile(path, []byte("schema_version: v2\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "schema_version")
}
