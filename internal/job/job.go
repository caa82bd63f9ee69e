// Package job executes one crawl end to end: resolve the cache, serve
// from it when fresh, otherwise run a live crawl and persist the
// result.
package job

import (
	"errors"
	"time"
)

// Cache backends selectable through ExecutionParams.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Defaults applied by NewParams.
const (
	DefaultOutputPath     = "output/equities.csv"
	DefaultTimeout        = 45 * time.Second
	DefaultCacheDir       = "cache"
	DefaultCacheTTL       = 30 * time.Minute
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "screener:quotes"
)

// Result sources.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// ErrInvalidInput marks caller mistakes that no amount of retrying can
// fix: an empty region, an unknown cache backend.
var ErrInvalidInput = errors.New("invalid input")

// ExecutionParams describes one crawl request.
type ExecutionParams struct {
	Region     string
	OutputPath string
	MaxPages   int
	Timeout    time.Duration
	Headless   bool

	UseCache     bool
	CacheBackend string
	CacheDir     string
	CacheTTL     time.Duration

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

// NewParams returns params for a region with every other knob at its
// default.
func NewParams(region string) ExecutionParams {
	return ExecutionParams{
		Region:         region,
		OutputPath:     DefaultOutputPath,
		Timeout:        DefaultTimeout,
		Headless:       true,
		UseCache:       true,
		CacheBackend:   BackendLocal,
		CacheDir:       DefaultCacheDir,
		CacheTTL:       DefaultCacheTTL,
		RedisAddr:      DefaultRedisAddr,
		RedisKeyPrefix: DefaultRedisKeyPrefix,
	}
}

// ExecutionResult reports where the records came from and where they
// went.
type ExecutionResult struct {
	OutputPath   string `json:"output_path"`
	TotalRecords int    `json:"total_records"`
	Source       string `json:"source"`
}
