package job_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goscreener/internal/cache"
	"github.com/jonesrussell/goscreener/internal/domain"
	"github.com/jonesrussell/goscreener/internal/job"
	"github.com/jonesrussell/goscreener/internal/source"
)

var testRecords = []domain.EquityQuote{
	{Symbol: "GGAL.BA", Name: "Grupo Financiero Galicia", Price: "4500.50"},
	{Symbol: "YPFD.BA", Name: "YPF Sociedad", Price: "31200.00"},
}

// fakeCache scripts Load results and records Save calls.
type fakeCache struct {
	loaded  []domain.EquityQuote
	loadErr error
	saveErr error
	saved   [][]domain.EquityQuote
}

func (c *fakeCache) Load(ctx context.Context, region string, ttl time.Duration) ([]domain.EquityQuote, error) {
	return c.loaded, c.loadErr
}

func (c *fakeCache) Save(ctx context.Context, region string, records []domain.EquityQuote) (string, error) {
	c.saved = append(c.saved, records)
	if c.saveErr != nil {
		return "", c.saveErr
	}
	return "fake", nil
}

// fakeJobSource serves one page of canned content.
type fakeJobSource struct {
	closed bool
}

func (s *fakeJobSource) LoadPage(ctx context.Context) error                       { return nil }
func (s *fakeJobSource) ApplyRegionFilter(ctx context.Context, region string) error { return nil }
func (s *fakeJobSource) CurrentPageContent(ctx context.Context) (string, error)   { return "page", nil }
func (s *fakeJobSource) HasNextPage(ctx context.Context) (bool, error)            { return false, nil }
func (s *fakeJobSource) GoToNextPage(ctx context.Context) error                   { return nil }
func (s *fakeJobSource) TotalLabel(ctx context.Context) string                    { return "" }
func (s *fakeJobSource) Close() error {
	s.closed = true
	return nil
}

// fakeFactory hands out one fakeJobSource and records each acquisition's
// options.
type fakeFactory struct {
	src      *fakeJobSource
	err      error
	acquired int
	opts     []source.Options
}

func (f *fakeFactory) New(ctx context.Context, opts source.Options) (source.Source, error) {
	f.acquired++
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return f.src, nil
}

type fakeParser struct {
	records []domain.EquityQuote
}

func (p *fakeParser) Parse(content string) []domain.EquityQuote { return p.records }

type fakeSink struct {
	path    string
	records []domain.EquityQuote
	err     error
	writes  int
}

func (s *fakeSink) Write(path string, records []domain.EquityQuote) error {
	s.writes++
	s.path = path
	s.records = records
	return s.err
}

func cacheFactoryFor(c cache.Cache) job.CacheFactory {
	return job.CacheFactoryFunc(func(job.ExecutionParams) (cache.Cache, error) {
		return c, nil
	})
}

func testParams() job.ExecutionParams {
	p := job.NewParams("Argentina")
	p.OutputPath = "out.csv"
	return p
}

func TestExecute_EmptyRegionFailsFast(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{src: &fakeJobSource{}}
	exec := job.NewExecutor(factory, &fakeParser{}, &fakeSink{}, cacheFactoryFor(&fakeCache{}), nil)

	_, err := exec.Execute(context.Background(), job.ExecutionParams{})
	assert.ErrorIs(t, err, job.ErrInvalidInput)
	assert.Zero(t, factory.acquired)
}

func TestExecute_UnknownBackendFailsBeforeAnyWork(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{src: &fakeJobSource{}}
	sink := &fakeSink{}
	exec := job.NewExecutor(factory, &fakeParser{}, sink, job.NewCacheFactory(nil), nil)

	params := testParams()
	params.CacheBackend = "memcached"

	_, err := exec.Execute(context.Background(), params)
	assert.ErrorIs(t, err, job.ErrInvalidInput)
	assert.Zero(t, factory.acquired)
	assert.Zero(t, sink.writes)
}

func TestExecute_CacheHitSkipsSourceEntirely(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{src: &fakeJobSource{}}
	sink := &fakeSink{}
	store := &fakeCache{loaded: testRecords}
	exec := job.NewExecutor(factory, &fakeParser{}, sink, cacheFactoryFor(store), nil)

	result, err := exec.Execute(context.Background(), testParams())
	require.NoError(t, err)

	assert.Equal(t, job.SourceCache, result.Source)
	assert.Equal(t, len(testRecords), result.TotalRecords)
	assert.Equal(t, "out.csv", sink.path)
	assert.Equal(t, testRecords, sink.records)
	assert.Zero(t, factory.acquired, "a fresh cache hit must not construct a page source")
	assert.Empty(t, store.saved)
}

func TestExecute_CacheMissRunsLiveCrawlAndSaves(t *testing.T) {
	t.Parallel()

	src := &fakeJobSource{}
	factory := &fakeFactory{src: src}
	sink := &fakeSink{}
	store := &fakeCache{}
	exec := job.NewExecutor(factory, &fakeParser{records: testRecords}, sink, cacheFactoryFor(store), nil)

	result, err := exec.Execute(context.Background(), testParams())
	require.NoError(t, err)

	assert.Equal(t, job.SourceLive, result.Source)
	assert.Equal(t, len(testRecords), result.TotalRecords)
	assert.Equal(t, 1, factory.acquired)
	assert.True(t, src.closed, "page source must be released")
	require.Len(t, store.saved, 1)
	assert.Equal(t, testRecords, store.saved[0])
	assert.Equal(t, testRecords, sink.records)
}

func TestExecute_HeadlessRequestReachesFactory(t *testing.T) {
	t.Parallel()

	for _, headless := range []bool{true, false} {
		factory := &fakeFactory{src: &fakeJobSource{}}
		exec := job.NewExecutor(factory, &fakeParser{records: testRecords}, &fakeSink{}, cacheFactoryFor(&fakeCache{}), nil)

		params := testParams()
		params.Headless = headless

		_, err := exec.Execute(context.Background(), params)
		require.NoError(t, err)

		require.Len(t, factory.opts, 1)
		assert.Equal(t, headless, factory.opts[0].Headless,
			"requested headless=%v must reach source acquisition", headless)
	}
}

func TestExecute_CacheDisabledNeverTouchesCache(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{src: &fakeJobSource{}}
	caches := job.CacheFactoryFunc(func(job.ExecutionParams) (cache.Cache, error) {
		t.Fatal("cache factory must not be invoked when caching is off")
		return nil, nil
	})
	exec := job.NewExecutor(factory, &fakeParser{records: testRecords}, &fakeSink{}, caches, nil)

	params := testParams()
	params.UseCache = false

	result, err := exec.Execute(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, job.SourceLive, result.Source)
}

func TestExecute_CacheSaveFailureDoesNotFailJob(t *testing.T) {
	t.Parallel()

	factory := &fakeFactory{src: &fakeJobSource{}}
	sink := &fakeSink{}
	store := &fakeCache{saveErr: errors.New("disk full")}
	exec := job.NewExecutor(factory, &fakeParser{records: testRecords}, sink, cacheFactoryFor(store), nil)

	result, err := exec.Execute(context.Background(), testParams())
	require.NoError(t, err)
	assert.Equal(t, job.SourceLive, result.Source)
	assert.Equal(t, 1, sink.writes)
}

func TestExecute_SourceReleasedOnCrawlFailure(t *testing.T) {
	t.Parallel()

	src := &fakeJobSource{}
	factory := &fakeFactory{src: src}
	exec := job.NewExecutor(factory, &fakeParser{}, &fakeSink{}, cacheFactoryFor(&fakeCache{}), nil)

	params := testParams()
	factory.err = errors.New("browser did not start")

	_, err := exec.Execute(context.Background(), params)
	require.Error(t, err)
	assert.False(t, src.closed, "source never acquired, nothing to close")

	// Now let acquisition succeed but make the sink fail after the crawl.
	factory.err = nil
	sink := &fakeSink{err: errors.New("write denied")}
	exec = job.NewExecutor(factory, &fakeParser{records: testRecords}, sink, cacheFactoryFor(&fakeCache{}), nil)

	_, err = exec.Execute(context.Background(), params)
	require.Error(t, err)
	assert.True(t, src.closed, "source must be released even when the job fails")
}
