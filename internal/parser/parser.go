// Package parser extracts equity quotes from screener page markup.
package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/goscreener/internal/domain"
)

// Selectors for the screener result table.
const (
	rowSelector          = "tr[data-testid='data-table-v2-row']"
	tickerSelector       = "td[data-testid-cell='ticker'] span.symbol"
	tickerLinkSelector   = "td[data-testid-cell='ticker'] a[data-testid='table-cell-ticker']"
	nameSelector         = "td[data-testid-cell='companyshortname.raw'] div"
	priceChangeSelector  = "td[data-testid-cell='intradayprice'] span[data-testid='change']"
	priceCellSelector    = "td[data-testid-cell='intradayprice']"
	nonBreakingSpaceRune = ' '
)

// ScreenerParser turns raw screener page content into quotes. It is a
// pure function over its input: no state, no side effects.
type ScreenerParser struct{}

// NewScreenerParser creates a new screener parser.
func NewScreenerParser() *ScreenerParser {
	return &ScreenerParser{}
}

// Parse extracts quotes from page content. Rows missing a symbol or a
// name are skipped; malformed markup yields whatever rows are intact.
func (p *ScreenerParser) Parse(content string) []domain.EquityQuote {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var quotes []domain.EquityQuote
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		symbol := extractSymbol(row)
		name := extractName(row)
		if symbol == "" || name == "" {
			return
		}
		quotes = append(quotes, domain.EquityQuote{
			Symbol: symbol,
			Name:   name,
			Price:  extractPrice(row),
		})
	})

	return quotes
}

// extractSymbol extracts the ticker symbol, preferring the symbol span
// with the ticker anchor as fallback.
func extractSymbol(row *goquery.Selection) string {
	if symbol := strings.TrimSpace(row.Find(tickerSelector).First().Text()); symbol != "" {
		return symbol
	}
	return strings.TrimSpace(row.Find(tickerLinkSelector).First().Text())
}

// extractName extracts the company short name, preferring the cell's
// title attribute over its text.
func extractName(row *goquery.Selection) string {
	cell := row.Find(nameSelector).First()
	if cell.Length() == 0 {
		return ""
	}
	if title, exists := cell.Attr("title"); exists && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return strings.TrimSpace(cell.Text())
}

// extractPrice extracts the intraday price, falling back to the whole
// cell text when the change span is missing.
func extractPrice(row *goquery.Selection) string {
	raw := strings.TrimSpace(row.Find(priceChangeSelector).First().Text())
	if raw == "" {
		raw = strings.TrimSpace(row.Find(priceCellSelector).First().Text())
	}
	return normalizePrice(raw)
}

// normalizePrice cleans up raw price text. Placeholder values render as
// an empty price rather than garbage.
func normalizePrice(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(raw, string(nonBreakingSpaceRune), " ")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	switch cleaned {
	case "--", "N/A", "n/a":
		return ""
	}
	return cleaned
}
