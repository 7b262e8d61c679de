package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leomrlima/nosql/provider"
)

func chtemp(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmpDir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply when no config file exists", func(t *testing.T) {
		chtemp(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.False(t, cfg.Logging.Development)
		assert.Empty(t, cfg.Providers)
	})

	t.Run("reads providers from nosql.yml", func(t *testing.T) {
		chtemp(t)
		content := `
logging:
  level: debug
  development: true
providers:
  cache:
    type: key-value
    provider: redis
    addr: localhost:6379
    prefix: "app:"
  main:
    type: column
    provider: postgres
    url: postgres://localhost/app
`
		require.NoError(t, os.WriteFile("nosql.yml", []byte(content), 0644))

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.True(t, cfg.Logging.Development)
		require.Len(t, cfg.Providers, 2)

		cache := cfg.Providers["cache"]
		key, err := cache.Key()
		require.NoError(t, err)
		assert.Equal(t, provider.Key{Database: provider.KeyValue, Provider: "redis"}, key)
		assert.Equal(t, "localhost:6379", cache.Settings().Addr)
		assert.Equal(t, "app:", cache.Settings().Prefix)
	})

	t.Run("rejects a provider without a type", func(t *testing.T) {
		chtemp(t)
		content := `
providers:
  broken:
    provider: redis
`
		require.NoError(t, os.WriteFile("nosql.yml", []byte(content), 0644))

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type is required")
	})

	t.Run("rejects an unknown database type", func(t *testing.T) {
		chtemp(t)
		content := `
providers:
  broken:
    type: wide-column
    provider: cassandra
`
		require.NoError(t, os.WriteFile("nosql.yml", []byte(content), 0644))

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown database type")
	})

	t.Run("rejects a provider without a name", func(t *testing.T) {
		chtemp(t)
		content := `
providers:
  broken:
    type: graph
`
		require.NoError(t, os.WriteFile("nosql.yml", []byte(content), 0644))

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "provider name is required")
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("builds a logger from valid settings", func(t *testing.T) {
		logger, err := NewLogger(LoggingConfig{Level: "warn"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("rejects an invalid level", func(t *testing.T) {
		_, err := NewLogger(LoggingConfig{Level: "shouting"})
		require.Error(t, err)
	})
}

func TestHasConfigFile(t *testing.T) {
	chtemp(t)
	assert.False(t, HasConfigFile())

	require.NoError(t, os.WriteFile("nosql.yml", []byte("logging:\n  level: info\n"), 0644))
	assert.True(t, HasConfigFile())
}
