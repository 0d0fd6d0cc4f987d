package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodevhub/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "autodevhub", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "data/autodevhub.db", cfg.SQLite.File)
	assert.Equal(t, 30, cfg.Redis.RateLimitPerMinute)
	assert.Equal(t, "story.events", cfg.RabbitMQ.StoryEventsQueue)
	assert.True(t, cfg.AI.FallbackToTemplate)
	assert.Empty(t, cfg.AI.AnthropicAPIKey)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
port = 9090

[redis]
rate_limit_per_minute = 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 5, cfg.Redis.RateLimitPerMinute)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "3000")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("DATABASE_FILE", "/tmp/test.db")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AI_FALLBACK_TO_TEMPLATE", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.App.Port)
	assert.Equal(t, "sk-test", cfg.AI.AnthropicAPIKey)
	assert.Equal(t, "/tmp/test.db", cfg.SQLite.File)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSOrigins)
	assert.False(t, cfg.AI.FallbackToTemplate)
}

func TestSQLiteDSN(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "data/autodevhub.db?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", cfg.SQLiteDSN())
}

func TestInvalidEnvValuesKeepDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_PORT", "not-a-number")
	t.Setenv("DEBUG", "maybe")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.False(t, cfg.App.Debug)
}
