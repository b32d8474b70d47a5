package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/ormrest/internal/config"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ormrest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/api", cfg.HTTP.Prefix)
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 0, cfg.Route.FanOutLimit)
	assert.False(t, cfg.Database.Debug)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
http:
  addr: 127.0.0.1:9000
  prefix: /v1
database:
  dsn: file:test.db
  debug: true
log:
  level: debug
route:
  fan_out_limit: 4
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, "/v1", cfg.HTTP.Prefix)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Route.FanOutLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "log:\n  level: debug\n")
	t.Setenv("ORMREST_LOG_LEVEL", "warn")
	t.Setenv("ORMREST_ROUTE_FAN_OUT_LIMIT", "8")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Route.FanOutLimit)
}

func TestLoadMySQLDSN(t *testing.T) {
	t.Setenv("ORMREST_DATABASE_DRIVER", "mysql")
	t.Setenv("ORMREST_DATABASE_DSN", "root:secret@tcp(localhost:3306)/blog")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Contains(t, cfg.Database.DSN, "clientFoundRows=true")
	assert.Contains(t, cfg.Database.DSN, "parseTime=true")
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"driver", "database:\n  driver: oracle\n"},
		{"level", "log:\n  level: loud\n"},
		{"fan out", "route:\n  fan_out_limit: -1\n"},
		{"addr", "http:\n  addr: \"\"\n"},
		{"yaml", "http: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
