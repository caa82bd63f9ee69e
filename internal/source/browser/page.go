package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jonesrussell/goscreener/internal/logger"
	"github.com/jonesrussell/goscreener/internal/source"
)

// Selectors for the screener listing UI.
const (
	rowSelector           = "tr[data-testid='data-table-v2-row']"
	regionButtonSelector  = "button[data-ylk*='slk:Region']"
	regionOptionsSelector = "div.options"
	filterOptionSelector  = "input[data-testid^='filter-option-']"
	nextPageSelector      = "button[data-testid='next-page-button']"
	totalLabelSelector    = "div.paginationContainer div.total"
	applyButtonXPath      = "//button[normalize-space()='Apply' and not(@disabled)]"

	// loadAttempts is how many times LoadPage retries a timed-out load.
	loadAttempts = 3
	// menuAttempts is how many times the region menu open is retried.
	menuAttempts = 3
	// pollInterval paces UI-settle condition checks.
	pollInterval = 250 * time.Millisecond
	// regionCodeMaxLen is the longest region value treated as a country
	// code for the data-testid fallback lookup.
	regionCodeMaxLen = 3
	// regionSampleLimit caps how many region names an unknown-region
	// error lists.
	regionSampleLimit = 15
)

// ScreenerPage drives the equity screener listing through a Chrome page.
// It implements source.Source.
type ScreenerPage struct {
	cfg      Config
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	log      logger.Interface
}

var _ source.Source = (*ScreenerPage)(nil)

// LoadPage navigates to the screener listing and waits for the result
// table. A timed-out load is retried up to loadAttempts times.
func (p *ScreenerPage) LoadPage(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= loadAttempts; attempt++ {
		err := p.loadOnce(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		p.log.Warn("timeout while loading page, retrying",
			"attempt", attempt,
			"max_attempts", loadAttempts)
		// Stop any pending load before the next attempt.
		_, _ = p.page.Context(ctx).Eval(`() => window.stop()`)
	}
	return fmt.Errorf("load page after %d attempts: %w", loadAttempts, lastErr)
}

func (p *ScreenerPage) loadOnce(ctx context.Context) error {
	pg := p.page.Context(ctx).Timeout(p.cfg.Timeout)
	if err := pg.Navigate(p.cfg.BaseURL); err != nil {
		return fmt.Errorf("navigate %s: %w", p.cfg.BaseURL, source.ErrUnavailable)
	}
	if err := pg.WaitLoad(); err != nil {
		p.log.Debug("wait load did not finish, checking for table anyway", "error", err)
	}
	return p.waitForTableReady(ctx)
}

// ApplyRegionFilter opens the region menu, clears any selected regions,
// checks the requested one, and applies. A table that fails to visibly
// settle afterwards is a warning, not an error.
func (p *ScreenerPage) ApplyRegionFilter(ctx context.Context, region string) error {
	region = strings.TrimSpace(region)
	if region == "" {
		return errors.New("region cannot be empty")
	}

	p.log.Info("applying region filter", "region", region)
	previousFirstSymbol := p.firstSymbol(ctx)
	previousTotal := p.TotalLabel(ctx)

	if err := p.openRegionMenu(ctx); err != nil {
		return err
	}

	options, err := p.page.Context(ctx).Timeout(p.cfg.Timeout).Element(regionOptionsSelector)
	if err != nil {
		return fmt.Errorf("region options: %w", source.ErrTimeout)
	}

	p.clearSelectedRegions(options)

	checkbox, err := p.findRegionCheckbox(options, region)
	if err != nil {
		return err
	}
	p.safeClick(checkbox)

	if err := p.clickApplyButton(ctx); err != nil {
		return err
	}

	if !p.waitUntil(ctx, p.cfg.Timeout, func() bool {
		return strings.Contains(strings.ToLower(p.regionButtonText(ctx)), strings.ToLower(region))
	}) {
		return fmt.Errorf("region button did not reflect %q: %w", region, source.ErrTimeout)
	}

	if !p.waitUntil(ctx, p.cfg.Timeout, func() bool {
		return p.tableUpdated(ctx, previousFirstSymbol, previousTotal, region)
	}) {
		p.log.Warn("table did not signal update after applying region, continuing",
			"region", region)
	}
	return nil
}

// CurrentPageContent returns the result table's outer HTML, falling back
// to the whole document when no table is present.
func (p *ScreenerPage) CurrentPageContent(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Timeout(p.cfg.Timeout).Eval(
		`(sel) => {
			const row = document.querySelector(sel);
			const table = row && row.closest('table');
			if (table) return table.outerHTML;
			return document.documentElement.outerHTML;
		}`, rowSelector)
	if err != nil {
		return "", fmt.Errorf("read page content: %w", source.ErrUnavailable)
	}
	return res.Value.Str(), nil
}

// HasNextPage reports whether the next-page button exists and is enabled.
func (p *ScreenerPage) HasNextPage(ctx context.Context) (bool, error) {
	has, el, err := p.page.Context(ctx).Has(nextPageSelector)
	if err != nil {
		return false, fmt.Errorf("next page control: %w", source.ErrUnavailable)
	}
	if !has {
		return false, nil
	}
	disabled, err := el.Attribute("disabled")
	if err != nil {
		return false, fmt.Errorf("next page control: %w", source.ErrUnavailable)
	}
	return disabled == nil, nil
}

// GoToNextPage clicks the next-page control and waits briefly for the
// table to change. An unconfirmed change is a warning; the subsequent
// fingerprint check catches pages that did not actually advance.
func (p *ScreenerPage) GoToNextPage(ctx context.Context) error {
	previousFirstSymbol := p.firstSymbol(ctx)
	previousTotal := p.TotalLabel(ctx)

	next, err := p.page.Context(ctx).Timeout(p.cfg.Timeout).Element(nextPageSelector)
	if err != nil {
		return fmt.Errorf("next page button: %w", source.ErrTimeout)
	}
	p.safeClick(next)

	if !p.waitUntil(ctx, p.cfg.navigationTimeout(), func() bool {
		return p.pageChanged(ctx, previousFirstSymbol, previousTotal)
	}) {
		p.log.Warn("could not confirm page change quickly, continuing")
	}
	return p.waitForTableReady(ctx)
}

// TotalLabel returns the pagination total label, empty when unreadable.
func (p *ScreenerPage) TotalLabel(ctx context.Context) string {
	return p.elementText(ctx, totalLabelSelector)
}

// Close quits Chrome and cleans up the launcher's temp data.
func (p *ScreenerPage) Close() error {
	err := p.browser.Close()
	if p.launcher != nil {
		p.launcher.Cleanup()
	}
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

func (p *ScreenerPage) waitForTableReady(ctx context.Context) error {
	if _, err := p.page.Context(ctx).Timeout(p.cfg.Timeout).Element(rowSelector); err != nil {
		return fmt.Errorf("result table not ready: %w", source.ErrTimeout)
	}
	return nil
}

func (p *ScreenerPage) openRegionMenu(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < menuAttempts; attempt++ {
		button, err := p.page.Context(ctx).Timeout(p.cfg.Timeout).Element(regionButtonSelector)
		if err != nil {
			lastErr = fmt.Errorf("region button: %w", source.ErrTimeout)
			continue
		}
		_ = button.ScrollIntoView()
		p.safeClick(button)

		if _, err := p.page.Context(ctx).Timeout(p.cfg.Timeout).Element(filterOptionSelector); err == nil {
			return nil
		}
		lastErr = fmt.Errorf("region options did not open: %w", source.ErrTimeout)
	}
	return lastErr
}

func (p *ScreenerPage) clearSelectedRegions(options *rod.Element) {
	checked, err := options.Elements("input[type='checkbox']:checked")
	if err != nil {
		return
	}
	for _, checkbox := range checked {
		p.safeClick(checkbox)
	}
}

// findRegionCheckbox locates the checkbox for a region by its label
// title or text, with a data-testid fallback for short country codes.
func (p *ScreenerPage) findRegionCheckbox(options *rod.Element, region string) (*rod.Element, error) {
	regionLower := strings.ToLower(region)

	labels, err := options.Elements("label")
	if err != nil {
		return nil, fmt.Errorf("region labels: %w", source.ErrUnavailable)
	}
	for _, label := range labels {
		if strings.ToLower(labelName(label)) == regionLower {
			checkbox, cbErr := label.Element("input[type='checkbox']")
			if cbErr != nil {
				return nil, fmt.Errorf("region checkbox: %w", source.ErrUnavailable)
			}
			return checkbox, nil
		}
	}

	if len(regionLower) <= regionCodeMaxLen {
		selector := fmt.Sprintf("input[data-testid='filter-option-%s']", regionLower)
		if has, el, hasErr := options.Has(selector); hasErr == nil && has {
			return el, nil
		}
	}

	return nil, fmt.Errorf("region %q not found, available regions (sample): %s",
		region, strings.Join(availableRegions(labels), ", "))
}

func (p *ScreenerPage) clickApplyButton(ctx context.Context) error {
	apply, err := p.page.Context(ctx).Timeout(p.cfg.Timeout).ElementX(applyButtonXPath)
	if err != nil {
		return fmt.Errorf("apply button: %w", source.ErrTimeout)
	}
	p.safeClick(apply)
	return nil
}

// safeClick clicks an element, falling back to a JS click when the
// element is intercepted or went stale.
func (p *ScreenerPage) safeClick(el *rod.Element) {
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		if _, evalErr := el.Eval(`() => this.click()`); evalErr != nil {
			p.log.Debug("click failed", "error", evalErr)
		}
	}
}

// tableUpdated reports whether the listing visibly reflects the applied
// region: a changed first symbol, a changed total label, or a first row
// already in the requested region.
func (p *ScreenerPage) tableUpdated(ctx context.Context, previousFirstSymbol, previousTotal, region string) bool {
	firstSymbol := p.firstSymbol(ctx)
	totalLabel := p.TotalLabel(ctx)
	firstRegion := p.elementText(ctx, rowSelector+" td[data-testid-cell='region']")

	if firstSymbol != "" && previousFirstSymbol != "" && firstSymbol != previousFirstSymbol {
		return true
	}
	if totalLabel != "" && previousTotal != "" && totalLabel != previousTotal {
		return true
	}
	return firstRegion != "" && strings.EqualFold(firstRegion, region)
}

// pageChanged reports whether pagination advanced, judged by the first
// symbol when one was visible, else by the total label.
func (p *ScreenerPage) pageChanged(ctx context.Context, previousFirstSymbol, previousTotal string) bool {
	if previousFirstSymbol != "" {
		current := p.firstSymbol(ctx)
		return current != "" && current != previousFirstSymbol
	}
	if previousTotal != "" {
		current := p.TotalLabel(ctx)
		return current != "" && current != previousTotal
	}
	return false
}

func (p *ScreenerPage) firstSymbol(ctx context.Context) string {
	return p.elementText(ctx, rowSelector+" td[data-testid-cell='ticker'] span.symbol")
}

func (p *ScreenerPage) regionButtonText(ctx context.Context) string {
	return p.elementText(ctx, regionButtonSelector)
}

// elementText returns an element's trimmed text without waiting; a
// missing element reads as empty.
func (p *ScreenerPage) elementText(ctx context.Context, selector string) string {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil || !has {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// waitUntil polls cond until it holds, the timeout lapses, or ctx ends.
func (p *ScreenerPage) waitUntil(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}
	}
}

func labelName(label *rod.Element) string {
	if title, err := label.Attribute("title"); err == nil && title != nil && strings.TrimSpace(*title) != "" {
		return strings.TrimSpace(*title)
	}
	text, err := label.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func availableRegions(labels rod.Elements) []string {
	names := make([]string, 0, regionSampleLimit)
	for _, label := range labels {
		if name := labelName(label); name != "" {
			names = append(names, name)
			if len(names) == regionSampleLimit {
				break
			}
		}
	}
	return names
}
