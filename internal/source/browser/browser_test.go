package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	cfg.defaults()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.NotNil(t, cfg.Logger)
}

func TestConfigDefaultsKeepExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BaseURL: "https://example.com/screener",
		Timeout: 10 * time.Second,
	}
	cfg.defaults()

	assert.Equal(t, "https://example.com/screener", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestNavigationTimeoutIsCapped(t *testing.T) {
	t.Parallel()

	long := Config{Timeout: time.Minute}
	long.defaults()
	assert.Equal(t, navigationTimeoutCap, long.navigationTimeout())

	short := Config{Timeout: 5 * time.Second}
	short.defaults()
	assert.Equal(t, 5*time.Second, short.navigationTimeout())
}
