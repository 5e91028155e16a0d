// Package cache stores rendered API responses for a fixed time-to-live.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Cache is a byte-valued key store with a fixed TTL. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value for key. ok is false on a miss or an expired entry.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New builds the backend named by cfg.Backend. A zero TTL disables caching.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.TTL <= 0 {
		backend = BackendNone
	}

	switch backend {
	case BackendMemory, "":
		logger.Info("response cache", zap.String("backend", BackendMemory), zap.Duration("ttl", cfg.TTL))
		return NewMemory(ctx, cfg.TTL)
	case BackendRedis:
		logger.Info("response cache", zap.String("backend", BackendRedis), zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.TTL))
		return NewRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
	case BackendNone:
		logger.Info("response cache disabled")
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Close() error                                      { return nil }
