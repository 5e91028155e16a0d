package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// Memory is an in-process cache backed by bigcache. Entries expire after the life window.
type Memory struct {
	cache *bigcache.BigCache
}

// NewMemory creates a Memory cache whose entries live for ttl.
func NewMemory(ctx context.Context, ttl time.Duration) (*Memory, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("memory cache ttl must be positive")
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 1024
	cfg.MaxEntrySize = 4096
	cfg.CleanWindow = ttl
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &Memory{cache: cache}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := m.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("memory cache get %s: %w", key, err)
	}
	return value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	if err := m.cache.Set(key, value); err != nil {
		return fmt.Errorf("memory cache set %s: %w", key, err)
	}
	return nil
}

func (m *Memory) Close() error {
	return m.cache.Close()
}
