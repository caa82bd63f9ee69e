// Package source defines the page source capability consumed by the
// crawl orchestrator. A page source knows how to load the screener
// listing, filter it by region, and walk its pagination; it says nothing
// about how that is achieved.
package source

import (
	"context"
	"errors"
)

// Sentinel error kinds for page source failures. Concrete sources wrap
// these so callers can classify failures without knowing the driver.
var (
	// ErrUnavailable indicates the page or one of its controls could
	// not be reached.
	ErrUnavailable = errors.New("page source unavailable")
	// ErrTimeout indicates the page did not become ready in time.
	ErrTimeout = errors.New("page source timeout")
)

// Source is the capability the orchestrator drives across pages.
type Source interface {
	// LoadPage navigates to the base listing and waits for the result
	// table to be present.
	LoadPage(ctx context.Context) error

	// ApplyRegionFilter restricts the listing to one region. The filter
	// must be idempotent; sources downgrade a UI that fails to visibly
	// settle to a warning rather than an error.
	ApplyRegionFilter(ctx context.Context, region string) error

	// CurrentPageContent returns the raw content of the page currently
	// rendered, scoped to the result table when possible.
	CurrentPageContent(ctx context.Context) (string, error)

	// HasNextPage reports whether an enabled next-page control exists.
	HasNextPage(ctx context.Context) (bool, error)

	// GoToNextPage advances the pagination by one page.
	GoToNextPage(ctx context.Context) error

	// TotalLabel returns the listing's total-count label, or empty when
	// it cannot be read. Informational only.
	TotalLabel(ctx context.Context) string

	// Close releases the source's resources.
	Close() error
}

// Options carries per-acquisition settings. They belong to the request,
// not the factory: two jobs served by the same factory may ask for
// different values.
type Options struct {
	// Headless runs the source without a visible window.
	Headless bool
}

// Factory creates sources on demand. The job executor goes through a
// factory so that cache hits never pay for source construction.
type Factory interface {
	New(ctx context.Context, opts Options) (Source, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context, opts Options) (Source, error)

// New calls f.
func (f FactoryFunc) New(ctx context.Context, opts Options) (Source, error) {
	return f(ctx, opts)
}
