// Package domain provides domain models used across the application.
package domain

// EquityQuote represents one row of the equity screener listing.
// Identity is by Symbol: two quotes with the same symbol are the same
// equity regardless of the other fields.
type EquityQuote struct {
	// Ticker symbol, unique within a crawl result
	Symbol string `json:"symbol"`
	// Company short name
	Name string `json:"name"`
	// Normalized price text; may be empty when the listing shows no price
	Price string `json:"price"`
}
