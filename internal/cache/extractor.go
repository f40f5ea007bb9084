package cache

import (
	"context"
	"log/slog"
	"os"

	deierrors "github.com/panbanda/dei/pkg/errors"
	"github.com/panbanda/dei/pkg/extractor"
	"github.com/panbanda/dei/pkg/models"
)

// SourceExtractor can analyze source that was already read.
type SourceExtractor interface {
	extractor.Extractor
	ExtractSource(ctx context.Context, path string, src []byte) (*models.FileMetrics, error)
}

// Extractor serves metrics from the cache and falls through to the wrapped
// extractor on a miss.
type Extractor struct {
	inner  SourceExtractor
	cache  *Cache
	logger *slog.Logger
}

// NewExtractor wraps inner with c. A nil logger discards.
func NewExtractor(inner SourceExtractor, c *Cache, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{inner: inner, cache: c, logger: logger}
}

// Supports delegates to the wrapped extractor.
func (e *Extractor) Supports(path string) bool {
	return e.inner.Supports(path)
}

// Extract returns cached metrics when the file content is unchanged.
// A failed cache write is logged and does not fail the extraction.
func (e *Extractor) Extract(ctx context.Context, path string) (*models.FileMetrics, error) {
	if !e.cache.Enabled() {
		return e.inner.Extract(ctx, path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, deierrors.IO(path, err)
	}
	hash := HashBytes(src)

	if fm, ok := e.cache.Get(path, hash); ok {
		e.logger.Debug("cache hit", "path", path)
		return fm, nil
	}

	fm, err := e.inner.ExtractSource(ctx, path, src)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(path, hash, fm); err != nil {
		e.logger.Warn("cache write failed", "path", path, "error", err)
	}
	return fm, nil
}
