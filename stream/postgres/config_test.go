package postgres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_TableDefaultsAndValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postgres.yml")
	require.NoError(t, os.WriteFile(path, []byte("dsn: postgres://localhost/shardlog?sslmode=disable\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "transactions", cfg.Table)

	require.NoError(t, os.WriteFile(path, []byte(`dsn: postgres://localhost/shardlog
table: "bad; drop table"
`), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "invalid table name")
}

func TestLoadConfig_RequiresDSN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postgres.yml")
	require.NoError(t, os.WriteFile(path, []byte("table: transactions\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "dsn")
}
