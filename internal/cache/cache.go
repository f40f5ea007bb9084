// Package cache keeps extracted file metrics on disk so unchanged files are
// not parsed again. Entries are keyed by path and validated against a
// BLAKE3 hash of the file contents.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/dei/pkg/config"
	deierrors "github.com/panbanda/dei/pkg/errors"
	"github.com/panbanda/dei/pkg/models"
)

// Cache provides file-based caching of FileMetrics.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
}

// Entry is the on-disk form of one cached file.
type Entry struct {
	Hash      string              `json:"hash"`
	Timestamp time.Time           `json:"timestamp"`
	Metrics   *models.FileMetrics `json:"metrics"`
}

// New creates a cache rooted at dir. A ttl of zero hours never expires.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false, now: time.Now}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, deierrors.IO(dir, err)
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
		now:     time.Now,
	}, nil
}

// FromConfig creates a cache from the cache section of the config.
func FromConfig(c config.CacheConfig) (*Cache, error) {
	return New(c.Dir, c.TTL, c.Enabled)
}

// Enabled reports whether lookups can hit.
func (c *Cache) Enabled() bool { return c.enabled }

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the metrics cached for path when the stored hash matches and
// the entry has not expired. Expired entries are removed.
func (c *Cache) Get(path, hash string) (*models.FileMetrics, bool) {
	if !c.enabled {
		return nil, false
	}

	key := c.keyPath(path)
	data, err := os.ReadFile(key)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Metrics == nil {
		return nil, false
	}
	if entry.Hash != hash {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(entry.Timestamp) > c.ttl {
		os.Remove(key)
		return nil, false
	}

	return entry.Metrics, true
}

// Set stores the metrics for path under hash.
func (c *Cache) Set(path, hash string, fm *models.FileMetrics) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(Entry{
		Hash:      hash,
		Timestamp: c.now(),
		Metrics:   fm,
	})
	if err != nil {
		return err
	}

	key := c.keyPath(path)
	if err := os.WriteFile(key, data, 0o600); err != nil {
		return deierrors.IO(key, err)
	}
	return nil
}

// Invalidate removes the entry for path. A missing entry is not an error.
func (c *Cache) Invalidate(path string) error {
	if !c.enabled {
		return nil
	}
	err := os.Remove(c.keyPath(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath hashes the key so any path maps to a flat file name.
func (c *Cache) keyPath(key string) string {
	hash := blake3.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int   `json:"entries"`
	TotalSize int64 `json:"total_size"`
}

// GetStats counts the entries on disk.
func (c *Cache) GetStats() (*Stats, error) {
	stats := &Stats{}
	if !c.enabled {
		return stats, nil
	}

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
