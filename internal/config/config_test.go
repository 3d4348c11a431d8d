package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "directory_sessions", cfg.Database.Table)
	assert.Equal(t, 168*time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5000, cfg.Directory.AutocompleteLimit)
	assert.Equal(t, 50, cfg.Directory.ResultsPerPage)
	assert.Equal(t, 30*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9000"
log:
  level: debug
  format: console
directory:
  results_per_page: 20
  link_template: "https://maps.example/{rmnbr}"
redis:
  enabled: true
  session_ttl: 1h
`), 0o600))

	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("AUTOCOMPLETE_LIMIT", "100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 20, cfg.Directory.ResultsPerPage)
	assert.Equal(t, 100, cfg.Directory.AutocompleteLimit)
	assert.Equal(t, "https://maps.example/{rmnbr}", cfg.Directory.LinkTemplate)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Hour, cfg.Redis.SessionTTL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("RESULTS_PER_PAGE", "0")
	t.Setenv("LOG_FORMAT", "xml")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "results_per_page")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "owlrd", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=owlrd sslmode=disable", c.GetDSN())
}
