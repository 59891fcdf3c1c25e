package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "Moon Sniper"
  env: test
alerts:
  file: /tmp/alerts.json
  interval: 30s
  default_email: me@test.com
data_sources:
  quote_api:
    base_url: http://localhost:9000/api/metrics
    timeout: 5s
api:
  port: "9090"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Moon Sniper", cfg.App.Name)
	assert.Equal(t, "/tmp/alerts.json", cfg.Alerts.File)
	assert.Equal(t, 30*time.Second, cfg.Alerts.Interval)
	assert.Equal(t, "me@test.com", cfg.Alerts.DefaultEmail)
	assert.Equal(t, 5*time.Second, cfg.DataSources.QuoteAPI.Timeout)
	assert.Equal(t, "9090", cfg.API.Port)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
app:
  env: test
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Moon Sniper", cfg.App.Name)
	assert.Equal(t, "alerts/alerts.json", cfg.Alerts.File)
	assert.Equal(t, 60*time.Second, cfg.Alerts.Interval)
	assert.Equal(t, "Moon Sniper", cfg.Alerts.Username)
	assert.Equal(t, "Moon Sniper", cfg.Alerts.SenderName)
	assert.Equal(t, "watchlists", cfg.DataSources.WatchlistsDir)
	assert.Equal(t, "8080", cfg.API.Port)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
alerts:
  brevo_key: from-file
`)

	t.Setenv("BREVO_API_KEY", "from-env")
	t.Setenv("DEFAULT_EMAIL", "env@test.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Alerts.BrevoKey)
	assert.Equal(t, "env@test.com", cfg.Alerts.DefaultEmail)
}

func TestLoadConfig_FileMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
