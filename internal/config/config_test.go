package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"change-intake-service/internal/formrules"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8010, cfg.Server.Port)
	assert.Equal(t, "/api/intake", cfg.Server.BasePath)
	assert.Equal(t, 30*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, "anonymous@chat.local", cfg.Session.ChatEmailFallback)
	assert.Equal(t, "noreply@example.com", cfg.Session.FormEmailFallback)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, cfg.Webhook.URL, cfg.Webhook.ActiveURL())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9000
  log_level: info
webhook:
  url: http://n8n:5678/webhook/change-chat
  test_url: http://n8n:5678/webhook/change-chat-test
  timeout: 5s
session:
  cache_ttl: 45s
probe:
  schedule: "@every 30s"
`)

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("N8N_TEST_MODE", "true")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CORS_ORIGINS", "https://intake.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Webhook.Timeout)
	assert.Equal(t, 45*time.Second, cfg.Session.CacheTTL)
	assert.Equal(t, "@every 30s", cfg.Probe.Schedule)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "https://intake.example.com", cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Webhook.TestMode)
	assert.Equal(t, "http://n8n:5678/webhook/change-chat-test", cfg.Webhook.ActiveURL())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "server: [unterminated")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRuleTable(t *testing.T) {
	t.Run("built-in table without path", func(t *testing.T) {
		table, err := LoadRuleTable("")
		require.NoError(t, err)
		assert.Equal(t, formrules.DefaultRuleTable(), table)
	})

	t.Run("file overrides one tier", func(t *testing.T) {
		path := writeFile(t, "rules.yaml", `
mini:
  required: [titel, beschreibung]
  optional: [sonstiges]
  hidden: []
`)
		table, err := LoadRuleTable(path)
		require.NoError(t, err)

		assert.Equal(t, []string{"titel", "beschreibung"}, table[formrules.TierMini].Required)
		assert.NotNil(t, table[formrules.TierMini].MinLengths)
		assert.Equal(t, formrules.DefaultRuleTable()[formrules.TierStandard], table[formrules.TierStandard])
	})

	t.Run("unknown tier", func(t *testing.T) {
		path := writeFile(t, "rules.yaml", "huge:\n  required: [titel]\n")
		_, err := LoadRuleTable(path)
		assert.ErrorContains(t, err, "unknown tier")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRuleTable(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
