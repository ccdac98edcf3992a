// Package artifact provides the places model artifacts are read from.
package artifact

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"exoscope/config"
)

// Source hands out artifact blobs by file name. Missing artifacts are
// reported with an error wrapping fs.ErrNotExist.
type Source interface {
	Name() string
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

type Factory func(ctx context.Context, cfg config.ModelConfig) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(ctx context.Context, cfg config.ModelConfig) (Source, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Source))
	if key == "" {
		key = "local"
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported artifact source: %s", cfg.Source)
	}
	return factory(ctx, cfg)
}
