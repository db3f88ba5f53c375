package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "villabot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadAppliesDefaults(t *testing.T) {
	writeConfig(t, `
dataset:
  partitions:
    - "Villa, Hotel, Resort Sidemen"
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultHeaders(), cfg.Dataset.Headers)
	assert.Equal(t, "Bali", cfg.Dataset.Region)
	assert.Equal(t, "https://serpapi.com/search", cfg.Search.BaseURL)
	assert.Equal(t, "id", cfg.Search.Country)
	assert.Equal(t, "id", cfg.Search.Language)
	assert.Equal(t, 8, cfg.Agent.MaxTurns)
	assert.Equal(t, 30*time.Minute, cfg.Proposal.TTL)
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "villabot", cfg.Tracing.ServiceName)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadExplicitValues(t *testing.T) {
	writeConfig(t, `
dataset:
  partitions:
    - "Villa, Hotel, Resort Sidemen"
    - "Villa, Hotel, Resort Selat"
  region: Lombok
search:
  max_qps: 5
agent:
  max_turns: 4
proposal:
  ttl: 10m
store:
  driver: postgres
  dsn: "postgres://villabot@db/villabot?sslmode=disable"
http:
  port: 9090
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Len(t, cfg.Dataset.Partitions, 2)
	assert.Equal(t, "Lombok", cfg.Dataset.Region)
	assert.Equal(t, float64(5), cfg.Search.MaxQPS)
	assert.Equal(t, 4, cfg.Agent.MaxTurns)
	assert.Equal(t, 10*time.Minute, cfg.Proposal.TTL)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoadRejectsEmptyPartitions(t *testing.T) {
	writeConfig(t, `
dataset:
  partitions: []
`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partitions")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	writeConfig(t, `
dataset:
  partitions: ["A"]
store:
  driver: mysql
`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store driver")
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
