// Package cache stores finished translations so that repeated selections
// skip the backend.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/seltra"
)

// TranslationCache is the cache interface the engine consumes.
type TranslationCache = seltra.TranslationCache

// Enumerable is a cache that can list its live entries, for export.
type Enumerable interface {
	TranslationCache
	Entries() (map[string]string, error)
}

// Config selects and configures a cache.
type Config struct {
	RedisURL   string        // Use Redis when set (e.g., "redis://localhost:6379/0")
	TTL        time.Duration // Entry lifetime; 0 keeps entries forever
	KeyPrefix  string        // Redis key prefix (default: "seltra:")
	MaxEntries int           // In-memory bound; 0 is unbounded
}

// Open returns a Redis cache when cfg.RedisURL is set and an in-memory
// cache otherwise.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Enumerable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RedisURL == "" {
		logger.Debug("using in-memory translation cache", "ttl", cfg.TTL, "max_entries", cfg.MaxEntries)
		return NewInMemoryCache(cfg.TTL, cfg.MaxEntries), nil
	}

	c, err := NewRedisCache(ctx, RedisConfig{
		URL:       cfg.RedisURL,
		TTL:       cfg.TTL,
		KeyPrefix: cfg.KeyPrefix,
		Logger:    logger,
	})
	if err != nil {
		return nil, &seltra.CacheError{Message: "connecting to redis", Cause: err}
	}
	logger.Debug("using redis translation cache", "ttl", cfg.TTL)
	return c, nil
}
