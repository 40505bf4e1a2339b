// Package serving turns a raw record into a life expectancy prediction
// using a persisted bundle.
package serving

import (
	"context"
	"sync"

	"github.com/your-org/lifexp-predictor/internal/bundle"
	"github.com/your-org/lifexp-predictor/internal/config"
)

// Source provides the bundle used for a prediction.
type Source interface {
	Load(ctx context.Context) (*bundle.Bundle, error)
}

// FileSource reads the bundle from disk on every call, so a retrained
// bundle is picked up without a restart.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*bundle.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bundle.Load(s.Path)
}

// CachedSource loads from the wrapped source once and then hands out the
// same read-only bundle. A failed load is retried on the next call.
type CachedSource struct {
	src Source
	mu  sync.Mutex
	b   *bundle.Bundle
}

// NewCachedSource wraps src.
func NewCachedSource(src Source) *CachedSource {
	return &CachedSource{src: src}
}

// Load implements Source.
func (s *CachedSource) Load(ctx context.Context) (*bundle.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.b != nil {
		return s.b, nil
	}
	b, err := s.src.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.b = b
	return b, nil
}

// NewSource selects the source described by cfg.
func NewSource(cfg config.BundleConfig) Source {
	file := FileSource{Path: cfg.Path}
	if cfg.Cache {
		return NewCachedSource(file)
	}
	return file
}
