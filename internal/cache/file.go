package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonesrussell/goscreener/internal/domain"
	"github.com/jonesrussell/goscreener/internal/logger"
)

const cacheFileMode = 0o644

// FileCache stores one JSON snapshot file per region under a directory.
// Writes go through a temp file and an atomic rename so readers never
// observe a partial snapshot.
type FileCache struct {
	dir string
	log logger.Interface
}

var _ Cache = (*FileCache)(nil)

// NewFileCache creates a file-backed cache rooted at dir.
func NewFileCache(dir string, log logger.Interface) *FileCache {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &FileCache{dir: dir, log: log.WithComponent("cache")}
}

// Load reads the region's snapshot if it is fresh. Any defect in the
// stored file — missing, unreadable, malformed, wrong version, stale —
// is a miss, not an error.
func (c *FileCache) Load(ctx context.Context, region string, ttl time.Duration) ([]domain.EquityQuote, error) {
	path := c.cacheFile(region)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("cache file unreadable, treating as miss", "path", path, "error", err)
		}
		return nil, nil
	}

	var snapshot Snapshot
	if unmarshalErr := json.Unmarshal(data, &snapshot); unmarshalErr != nil {
		c.log.Warn("invalid cache file, treating as miss", "path", path)
		return nil, nil
	}

	if snapshot.Version != SnapshotVersion || !snapshot.fresh(ttl) {
		return nil, nil
	}

	return snapshot.records(), nil
}

// Save writes the region's snapshot, creating parent directories as
// needed, and returns the file path.
func (c *FileCache) Save(ctx context.Context, region string, records []domain.EquityQuote) (string, error) {
	path := c.cacheFile(region)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.Marshal(NewSnapshot(region, records))
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	// Write-then-rename keeps the snapshot all-or-nothing for readers.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, cacheFileMode); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("replace snapshot: %w", err)
	}

	return path, nil
}

func (c *FileCache) cacheFile(region string) string {
	return filepath.Join(c.dir, NormalizeRegion(region)+".json")
}
