// Package common wires shared dependencies for the CLI commands.
package common

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/goscreener/internal/config"
	"github.com/jonesrussell/goscreener/internal/job"
	"github.com/jonesrussell/goscreener/internal/logger"
	"github.com/jonesrussell/goscreener/internal/output"
	"github.com/jonesrussell/goscreener/internal/parser"
	"github.com/jonesrussell/goscreener/internal/source/browser"
)

// LoadConfig reads configuration honoring the root --config flag.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(cfgFile)
}

// BuildLogger creates the application logger. The root --debug flag
// forces debug level and console encoding.
func BuildLogger(cmd *cobra.Command, cfg *config.Config) (logger.Interface, error) {
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, err
	}

	logCfg := &logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Development,
		Encoding:    cfg.Logger.Encoding,
	}
	if debug {
		logCfg.Level = "debug"
		logCfg.Development = true
		logCfg.Encoding = "console"
	}

	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log, nil
}

// BuildExecutor assembles the production crawl executor: rod-driven
// browser source, goquery parser, CSV sink, configured cache factory.
// Headlessness is per job, carried by ExecutionParams.
func BuildExecutor(cfg *config.Config, log logger.Interface) *job.Executor {
	factory := browser.NewFactory(browser.Config{
		BaseURL: cfg.Crawler.BaseURL,
		Timeout: cfg.Crawler.Timeout,
		Logger:  log,
	})

	return job.NewExecutor(
		factory,
		parser.NewScreenerParser(),
		output.NewCSVSink(),
		job.NewCacheFactory(log),
		log,
	)
}

// ParamsFromConfig builds execution params for a region from the config
// file's crawler and cache sections.
func ParamsFromConfig(cfg *config.Config, region string) job.ExecutionParams {
	params := job.NewParams(region)
	params.OutputPath = cfg.Crawler.Output
	params.MaxPages = cfg.Crawler.MaxPages
	params.Timeout = cfg.Crawler.Timeout
	params.Headless = cfg.Crawler.Headless
	params.UseCache = cfg.Cache.Enabled
	params.CacheBackend = cfg.Cache.Backend
	params.CacheDir = cfg.Cache.Dir
	params.CacheTTL = cfg.Cache.TTL()
	params.RedisAddr = cfg.Cache.RedisAddr
	params.RedisPassword = cfg.Cache.RedisPassword
	params.RedisDB = cfg.Cache.RedisDB
	params.RedisKeyPrefix = cfg.Cache.RedisKeyPrefix
	return params
}
