package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goscreener/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "app:\n  name: goscreener\n"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "local", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, 45*time.Second, cfg.Crawler.Timeout)
	assert.True(t, cfg.Crawler.Headless)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.False(t, cfg.Database.Enabled)
	assert.Empty(t, cfg.Schedules)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
app:
  debug: true
crawler:
  timeout: 90s
  headless: false
cache:
  backend: redis
  ttl_minutes: 5
  redis_addr: redis:6379
schedules:
  - cron: "0 * * * *"
    region: Argentina
    out: output/argentina.csv
    use_cache: true
  - cron: "30 * * * *"
    region: Brazil
`))
	require.NoError(t, err)

	assert.True(t, cfg.App.Debug)
	assert.Equal(t, 90*time.Second, cfg.Crawler.Timeout)
	assert.False(t, cfg.Crawler.Headless)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL())
	assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)

	require.Len(t, cfg.Schedules, 2)
	assert.Equal(t, "Argentina", cfg.Schedules[0].Region)
	assert.Equal(t, "output/argentina.csv", cfg.Schedules[0].Out)
	assert.Equal(t, "Brazil", cfg.Schedules[1].Region)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
