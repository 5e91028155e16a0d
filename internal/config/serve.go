package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Config
	Listen         string
	DefaultLimit   uint64
	MaxLimit       uint64
	CacheBackend   string
	CacheTTL       time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RequestTimeout time.Duration
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"listen":          ":8080",
		"default-limit":   uint64(50),
		"max-limit":       uint64(500),
		"cache-backend":   "memory",
		"cache-ttl":       60 * time.Second,
		"redis-addr":      "127.0.0.1:6379",
		"redis-db":        0,
		"request-timeout": 15 * time.Second,
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Config:         common(v),
		Listen:         v.GetString("listen"),
		DefaultLimit:   v.GetUint64("default-limit"),
		MaxLimit:       v.GetUint64("max-limit"),
		CacheBackend:   v.GetString("cache-backend"),
		CacheTTL:       v.GetDuration("cache-ttl"),
		RedisAddr:      v.GetString("redis-addr"),
		RedisPassword:  v.GetString("redis-password"),
		RedisDB:        v.GetInt("redis-db"),
		RequestTimeout: v.GetDuration("request-timeout"),
	}
	if cfg.MaxLimit == 0 {
		return ServeConfig{}, fmt.Errorf("max-limit must be greater than zero")
	}
	return cfg, nil
}
