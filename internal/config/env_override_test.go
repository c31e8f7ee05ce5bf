package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("delimiters", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STRFIND_QUOTE", "'")
		t.Setenv("STRFIND_ESCAPE", "^")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "'", cfg.Quote)
		assert.Equal(t, "^", cfg.Escape)
	})

	t.Run("format and store", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STRFIND_FORMAT", "mangle")
		t.Setenv("STRFIND_DB", "/tmp/runs.db")
		t.Setenv("STRFIND_DB_DRIVER", "sqlite3")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())

		assert.Equal(t, "mangle", cfg.Output.Format)
		assert.Equal(t, "/tmp/runs.db", cfg.Store.Path)
		assert.Equal(t, "sqlite3", cfg.Store.Driver)
		assert.True(t, cfg.IsStoreEnabled())
	})

	t.Run("concurrency rejects garbage", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STRFIND_CONCURRENCY", "lots")

		cfg := DefaultConfig()
		err := cfg.applyEnvOverrides()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STRFIND_CONCURRENCY")
		assert.Equal(t, 4, cfg.Concurrency)

		_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)

		t.Setenv("STRFIND_CONCURRENCY", "8")
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, 8, cfg.Concurrency)
	})

	t.Run("empty values leave config alone", func(t *testing.T) {
		clearEnv(t)
		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, DefaultConfig(), cfg)
	})
}
