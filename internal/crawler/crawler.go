// Package crawler implements the crawl orchestrator: it drives a page
// source across the screener's pagination, parses each page, and
// deduplicates rows across pages.
package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/jonesrussell/goscreener/internal/domain"
	"github.com/jonesrussell/goscreener/internal/logger"
	"github.com/jonesrussell/goscreener/internal/source"
)

// ErrEmptyRegion is returned when Crawl is called without a region.
var ErrEmptyRegion = errors.New("region cannot be empty")

// signatureLen is how many leading symbols form a page signature. The
// signature is a heuristic loop guard; its shape is deliberate and
// should not be widened.
const signatureLen = 3

// Parser turns raw page content into quotes.
type Parser interface {
	Parse(content string) []domain.EquityQuote
}

// Orchestrator drives one page source through a full crawl. It holds no
// per-crawl state between calls; every Crawl invocation owns its own
// session.
type Orchestrator struct {
	source source.Source
	parser Parser
	log    logger.Interface
}

// New creates a crawl orchestrator.
func New(src source.Source, parser Parser, log logger.Interface) *Orchestrator {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Orchestrator{
		source: src,
		parser: parser,
		log:    log.WithComponent("crawler"),
	}
}

// Crawl walks the screener's pages for a region and returns the quotes
// seen, deduplicated by symbol (first seen wins) and sorted by symbol.
// maxPages bounds how many pages are visited; zero means no bound.
//
// A region filter that fails to apply is not fatal: the crawl proceeds
// over whatever the listing currently shows.
func (o *Orchestrator) Crawl(ctx context.Context, region string, maxPages int) ([]domain.EquityQuote, error) {
	if region == "" {
		return nil, ErrEmptyRegion
	}

	if err := o.source.LoadPage(ctx); err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	if err := o.source.ApplyRegionFilter(ctx, region); err != nil {
		o.log.Warn("region filter failed, crawling current listing",
			"region", region,
			"error", err)
	}

	bySymbol := make(map[string]domain.EquityQuote)
	parsedPages := make(map[string][]domain.EquityQuote)
	var lastSignature []string
	pageNumber := 1

	for {
		content, err := o.source.CurrentPageContent(ctx)
		if err != nil {
			return nil, fmt.Errorf("page %d content: %w", pageNumber, err)
		}

		// Re-serving identical content is common under flaky rendering;
		// the fingerprint cache avoids re-parsing it.
		fingerprint := Fingerprint(content)
		quotes, cached := parsedPages[fingerprint]
		if !cached {
			quotes = o.parser.Parse(content)
			parsedPages[fingerprint] = quotes
		}

		added := 0
		for _, quote := range quotes {
			if _, seen := bySymbol[quote.Symbol]; !seen {
				bySymbol[quote.Symbol] = quote
				added++
			}
		}

		hasNext, err := o.source.HasNextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("page %d next control: %w", pageNumber, err)
		}

		o.log.Info("page crawled",
			"page", pageNumber,
			"extracted", len(quotes),
			"new", added,
			"total", len(bySymbol),
			"total_label", o.source.TotalLabel(ctx),
			"has_next", hasNext,
			"parse_cache", len(parsedPages))

		// Loop guard: a repeated leading-symbol signature with the next
		// control still enabled means pagination is not advancing.
		signature := pageSignature(quotes)
		if len(signature) > 0 && equalSignatures(signature, lastSignature) && hasNext {
			o.log.Warn("repeated page signature detected, stopping to avoid loop",
				"page", pageNumber)
			break
		}
		lastSignature = signature

		if maxPages > 0 && pageNumber >= maxPages {
			o.log.Info("page limit reached", "max_pages", maxPages)
			break
		}
		if !hasNext {
			break
		}

		if err := o.source.GoToNextPage(ctx); err != nil {
			return nil, fmt.Errorf("advance from page %d: %w", pageNumber, err)
		}
		pageNumber++
	}

	return sortedQuotes(bySymbol), nil
}

// Fingerprint returns the hex-encoded SHA-256 of page content. The same
// content always yields the same fingerprint, so repeated pages are
// detected regardless of how often they are served.
func Fingerprint(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// pageSignature returns the ordered symbols of a page's leading rows.
func pageSignature(quotes []domain.EquityQuote) []string {
	n := len(quotes)
	if n > signatureLen {
		n = signatureLen
	}
	signature := make([]string, 0, n)
	for _, quote := range quotes[:n] {
		signature = append(signature, quote.Symbol)
	}
	return signature
}

func equalSignatures(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sortedQuotes(bySymbol map[string]domain.EquityQuote) []domain.EquityQuote {
	quotes := make([]domain.EquityQuote, 0, len(bySymbol))
	for _, quote := range bySymbol {
		quotes = append(quotes, quote)
	}
	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].Symbol < quotes[j].Symbol
	})
	return quotes
}
