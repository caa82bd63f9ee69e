// Package browser provides the rod-driven page source used for live
// crawls: Chrome launch, stealth page creation, and the screener page
// implementation of the source capability.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/jonesrussell/goscreener/internal/logger"
	"github.com/jonesrussell/goscreener/internal/source"
)

// Defaults for browser construction.
const (
	// DefaultBaseURL is the screener listing the source navigates to.
	DefaultBaseURL = "https://finance.yahoo.com/research-hub/screener/equity/"
	// DefaultTimeout bounds waits for page readiness and controls.
	DefaultTimeout = 45 * time.Second
	// navigationTimeoutCap bounds how long page-change confirmation waits.
	navigationTimeoutCap = 15 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// Config configures the browser-backed page source.
type Config struct {
	// BaseURL is the screener listing URL. Default: DefaultBaseURL.
	BaseURL string
	// Timeout bounds readiness waits. Default: DefaultTimeout.
	Timeout time.Duration
	// Logger receives source-level diagnostics.
	Logger logger.Interface
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.NewNoOp()
	}
}

// navigationTimeout returns the short wait used to confirm page changes.
func (c *Config) navigationTimeout() time.Duration {
	if c.Timeout < navigationTimeoutCap {
		return c.Timeout
	}
	return navigationTimeoutCap
}

// Factory launches a browser per source. It satisfies source.Factory so
// the job executor only pays for Chrome on a cache miss.
type Factory struct {
	cfg Config
}

// NewFactory creates a browser source factory.
func NewFactory(cfg Config) *Factory {
	cfg.defaults()
	return &Factory{cfg: cfg}
}

// New launches Chrome and opens a stealth page on the screener listing's
// origin. The returned source owns the browser; Close tears it down.
func (f *Factory) New(ctx context.Context, opts source.Options) (source.Source, error) {
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-gpu").
		Set("window-size", "1920,1080").
		Set("disable-blink-features", "AutomationControlled").
		Set("user-agent", userAgent)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", source.ErrUnavailable)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", source.ErrUnavailable)
	}

	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		l.Cleanup()
		return nil, fmt.Errorf("create stealth page: %w", source.ErrUnavailable)
	}

	f.cfg.Logger.Debug("browser launched",
		"headless", opts.Headless,
		"base_url", f.cfg.BaseURL)

	return &ScreenerPage{
		cfg:      f.cfg,
		browser:  b,
		launcher: l,
		page:     page,
		log:      f.cfg.Logger.WithComponent("source"),
	}, nil
}
