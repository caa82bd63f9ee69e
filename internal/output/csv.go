// Package output writes crawl results to their final destination.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonesrussell/goscreener/internal/domain"
)

const dirPerm = 0o755

// header must match the EquityQuote JSON field names.
var header = []string{"symbol", "name", "price"}

// CSVSink persists quotes as an all-quoted CSV file. A fixed target
// path makes repeated runs idempotent: each write replaces the file.
type CSVSink struct{}

// NewCSVSink creates a CSV result sink.
func NewCSVSink() *CSVSink { return &CSVSink{} }

// Write writes records to path, creating parent directories as needed
// and overwriting any existing file. Every field is quoted, including
// the header, so downstream consumers never have to guess at quoting.
func (s *CSVSink) Write(path string, records []domain.EquityQuote) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	var b strings.Builder
	writeRow(&b, header)
	for _, q := range records {
		writeRow(&b, []string{q.Symbol, q.Name, q.Price})
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// writeRow emits one record with every field quoted. encoding/csv only
// quotes when it must, so quoting is done by hand here.
func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
