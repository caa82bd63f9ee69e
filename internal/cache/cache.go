// Package cache provides TTL-bounded snapshot caching of crawl results,
// with a local-file backend and a Redis backend behind one contract.
package cache

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/jonesrussell/goscreener/internal/domain"
)

// SnapshotVersion is the persisted snapshot schema version. A stored
// snapshot with any other version is treated as a miss.
const SnapshotVersion = 1

// unknownRegionKey is used when a region normalizes to nothing.
const unknownRegionKey = "unknown_region"

// Cache is the record cache contract shared by both backends.
//
// Load returns (nil, nil) — a miss, never an error — when no entry
// exists, the schema version mismatches, the timestamp is missing or
// unparseable, the entry is older than ttl, or the stored payload is
// malformed. Backend unavailability on the read path is also a miss.
//
// Save persists a fresh snapshot and returns a location identifier (a
// file path or a key). The Redis backend treats write failures as
// best-effort: logged, not returned.
type Cache interface {
	Load(ctx context.Context, region string, ttl time.Duration) ([]domain.EquityQuote, error)
	Save(ctx context.Context, region string, records []domain.EquityQuote) (string, error)
}

// Snapshot is the persisted cache payload.
type Snapshot struct {
	Version   int                  `json:"version"`
	Region    string               `json:"region"`
	CreatedAt string               `json:"created_at"`
	Records   []domain.EquityQuote `json:"records"`
}

// NewSnapshot builds a versioned snapshot stamped with the current UTC
// time.
func NewSnapshot(region string, records []domain.EquityQuote) Snapshot {
	return Snapshot{
		Version:   SnapshotVersion,
		Region:    region,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Records:   records,
	}
}

// fresh reports whether the snapshot's age is within ttl. A negative
// ttl behaves like zero. Missing or unparseable timestamps are stale.
func (s Snapshot) fresh(ttl time.Duration) bool {
	if s.CreatedAt == "" {
		return false
	}
	createdAt, err := time.Parse(time.RFC3339Nano, s.CreatedAt)
	if err != nil {
		return false
	}
	if ttl < 0 {
		ttl = 0
	}
	return time.Since(createdAt) <= ttl
}

// records returns the snapshot's usable records: entries missing a
// symbol or a name are dropped, field values are trimmed.
func (s Snapshot) records() []domain.EquityQuote {
	quotes := make([]domain.EquityQuote, 0, len(s.Records))
	for _, record := range s.Records {
		symbol := strings.TrimSpace(record.Symbol)
		name := strings.TrimSpace(record.Name)
		if symbol == "" || name == "" {
			continue
		}
		quotes = append(quotes, domain.EquityQuote{
			Symbol: symbol,
			Name:   name,
			Price:  strings.TrimSpace(record.Price),
		})
	}
	return quotes
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeRegion turns a region value into a cache key segment:
// lowercase, every run of non-alphanumeric characters collapsed to one
// underscore, trimmed. An empty result maps to a fixed sentinel.
func NormalizeRegion(region string) string {
	normalized := strings.ToLower(strings.TrimSpace(region))
	normalized = nonAlphanumeric.ReplaceAllString(normalized, "_")
	normalized = strings.Trim(normalized, "_")
	if normalized == "" {
		return unknownRegionKey
	}
	return normalized
}
