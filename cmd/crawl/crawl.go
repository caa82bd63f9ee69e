// Package crawl implements the one-shot crawl command.
package crawl

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/goscreener/cmd/common"
	"github.com/jonesrussell/goscreener/internal/job"
)

const sampleRows = 10

// Command returns the crawl command.
func Command() *cobra.Command {
	var (
		region       string
		out          string
		maxPages     int
		timeout      time.Duration
		noHeadless   bool
		useCache     bool
		cacheBackend string
		cacheDir     string
		cacheTTL     time.Duration
		redisAddr    string
		redisPass    string
		redisDB      int
		redisPrefix  string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the screener for a region and export quotes to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := common.LoadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := common.BuildLogger(cmd, cfg)
			if err != nil {
				return err
			}

			params := common.ParamsFromConfig(cfg, region)
			if cmd.Flags().Changed("out") {
				params.OutputPath = out
			}
			if cmd.Flags().Changed("max-pages") {
				params.MaxPages = maxPages
			}
			if cmd.Flags().Changed("timeout") {
				params.Timeout = timeout
			}
			if noHeadless {
				params.Headless = false
			}
			if cmd.Flags().Changed("use-cache") {
				params.UseCache = useCache
			}
			if cmd.Flags().Changed("cache-backend") {
				params.CacheBackend = cacheBackend
			}
			if cmd.Flags().Changed("cache-dir") {
				params.CacheDir = cacheDir
			}
			if cmd.Flags().Changed("cache-ttl") {
				params.CacheTTL = cacheTTL
			}
			if cmd.Flags().Changed("redis-addr") {
				params.RedisAddr = redisAddr
			}
			if cmd.Flags().Changed("redis-password") {
				params.RedisPassword = redisPass
			}
			if cmd.Flags().Changed("redis-db") {
				params.RedisDB = redisDB
			}
			if cmd.Flags().Changed("redis-key-prefix") {
				params.RedisKeyPrefix = redisPrefix
			}

			executor := common.BuildExecutor(cfg, log)

			start := time.Now()
			result, err := executor.Execute(cmd.Context(), params)
			if err != nil {
				return err
			}

			printSummary(result, time.Since(start))
			printSample(result.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "region to crawl (required)")
	cmd.Flags().StringVar(&out, "out", job.DefaultOutputPath, "output CSV path")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum pages to crawl (0 = all)")
	cmd.Flags().DurationVar(&timeout, "timeout", job.DefaultTimeout, "overall crawl timeout")
	cmd.Flags().BoolVar(&noHeadless, "no-headless", false, "show the browser window")
	cmd.Flags().BoolVar(&useCache, "use-cache", true, "serve from cache when fresh")
	cmd.Flags().StringVar(&cacheBackend, "cache-backend", job.BackendLocal, "cache backend (local or redis)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", job.DefaultCacheDir, "local cache directory")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", job.DefaultCacheTTL, "cache freshness window")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", job.DefaultRedisAddr, "redis address")
	cmd.Flags().StringVar(&redisPass, "redis-password", "", "redis password")
	cmd.Flags().IntVar(&redisDB, "redis-db", 0, "redis database")
	cmd.Flags().StringVar(&redisPrefix, "redis-key-prefix", job.DefaultRedisKeyPrefix, "redis key prefix")

	_ = cmd.MarkFlagRequired("region")

	return cmd
}

func printSummary(result *job.ExecutionResult, elapsed time.Duration) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Output", "Records", "Elapsed"})
	t.AppendRow(table.Row{
		result.Source,
		result.OutputPath,
		result.TotalRecords,
		elapsed.Round(time.Millisecond),
	})
	t.Render()
}

// printSample shows the first rows of the written file so a run's
// output is visible without opening the CSV.
func printSample(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil || len(rows) < 2 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Symbol", "Name", "Price"})
	for i, row := range rows[1:] {
		if i >= sampleRows {
			break
		}
		if len(row) == 3 {
			t.AppendRow(table.Row{row[0], row[1], row[2]})
		}
	}
	if len(rows)-1 > sampleRows {
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("+%d more", len(rows)-1-sampleRows)})
	}
	t.Render()
}
