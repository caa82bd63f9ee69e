package job

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/goscreener/internal/cache"
	"github.com/jonesrussell/goscreener/internal/crawler"
	"github.com/jonesrussell/goscreener/internal/domain"
	"github.com/jonesrussell/goscreener/internal/logger"
	"github.com/jonesrussell/goscreener/internal/source"
)

// Sink persists the final record set.
type Sink interface {
	Write(path string, records []domain.EquityQuote) error
}

// CacheFactory resolves ExecutionParams into a record cache. Resolution
// happens before any other work so a bad backend name fails fast.
type CacheFactory interface {
	New(params ExecutionParams) (cache.Cache, error)
}

// CacheFactoryFunc adapts a function to CacheFactory.
type CacheFactoryFunc func(params ExecutionParams) (cache.Cache, error)

func (f CacheFactoryFunc) New(params ExecutionParams) (cache.Cache, error) { return f(params) }

// NewCacheFactory returns the production cache factory: a file cache
// for the local backend, Redis for the redis backend.
func NewCacheFactory(log logger.Interface) CacheFactory {
	return CacheFactoryFunc(func(params ExecutionParams) (cache.Cache, error) {
		switch params.CacheBackend {
		case BackendLocal:
			return cache.NewFileCache(params.CacheDir, log), nil
		case BackendRedis:
			client := redis.NewClient(&redis.Options{
				Addr:     params.RedisAddr,
				Password: params.RedisPassword,
				DB:       params.RedisDB,
			})
			return cache.NewRedisCache(cache.NewRedisStore(client), params.RedisKeyPrefix, log), nil
		default:
			return nil, fmt.Errorf("%w: unknown cache backend %q", ErrInvalidInput, params.CacheBackend)
		}
	})
}

// Executor runs crawl jobs. It is safe for concurrent use; each Execute
// call acquires and releases its own page source.
type Executor struct {
	factory source.Factory
	parser  crawler.Parser
	sink    Sink
	caches  CacheFactory
	log     logger.Interface
}

// NewExecutor creates a job executor.
func NewExecutor(factory source.Factory, parser crawler.Parser, sink Sink, caches CacheFactory, log logger.Interface) *Executor {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Executor{
		factory: factory,
		parser:  parser,
		sink:    sink,
		caches:  caches,
		log:     log.WithComponent("job"),
	}
}

// Execute runs one crawl job. A fresh cache entry short-circuits the
// live crawl entirely: no page source is constructed. On a miss the
// source is acquired, the crawl runs, the cache save is best-effort,
// and the source is released on every path.
func (e *Executor) Execute(ctx context.Context, params ExecutionParams) (*ExecutionResult, error) {
	if params.Region == "" {
		return nil, fmt.Errorf("%w: region cannot be empty", ErrInvalidInput)
	}

	var store cache.Cache
	if params.UseCache {
		var err error
		store, err = e.caches.New(params)
		if err != nil {
			return nil, err
		}

		records, err := store.Load(ctx, params.Region, params.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("load cache: %w", err)
		}
		if records != nil {
			e.log.Info("serving records from cache",
				"region", params.Region,
				"records", len(records))
			if err := e.sink.Write(params.OutputPath, records); err != nil {
				return nil, fmt.Errorf("write output: %w", err)
			}
			return &ExecutionResult{
				OutputPath:   params.OutputPath,
				TotalRecords: len(records),
				Source:       SourceCache,
			}, nil
		}
	}

	records, err := e.crawlLive(ctx, params)
	if err != nil {
		return nil, err
	}

	if store != nil {
		if _, err := store.Save(ctx, params.Region, records); err != nil {
			e.log.Warn("cache save failed, result unaffected",
				"region", params.Region,
				"error", err)
		}
	}

	if err := e.sink.Write(params.OutputPath, records); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	e.log.Info("crawl job completed",
		"region", params.Region,
		"records", len(records),
		"output", params.OutputPath)

	return &ExecutionResult{
		OutputPath:   params.OutputPath,
		TotalRecords: len(records),
		Source:       SourceLive,
	}, nil
}

// crawlLive acquires a page source, crawls, and guarantees release.
func (e *Executor) crawlLive(ctx context.Context, params ExecutionParams) ([]domain.EquityQuote, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	src, err := e.factory.New(ctx, source.Options{Headless: params.Headless})
	if err != nil {
		return nil, fmt.Errorf("acquire page source: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			e.log.Warn("page source close failed", "error", err)
		}
	}()

	return crawler.New(src, e.parser, e.log).Crawl(ctx, params.Region, params.MaxPages)
}
