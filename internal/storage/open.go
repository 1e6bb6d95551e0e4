package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tiliavir/trivial-attendance-tracker/internal/cache"
	"github.com/Tiliavir/trivial-attendance-tracker/internal/config"
)

// Open builds the configured backend wrapped in the record cache. The
// caller owns the returned Store and must Close it.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Store, error) {
	var (
		inner Store
		err   error
	)
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		inner, err = OpenPostgres(ctx, cfg.Store.DatabaseURL)
	case config.DriverBunt, "":
		inner, err = OpenBunt(cfg.Store.BuntPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	var (
		backend cache.Backend = cache.NewMemoryBackend()
		closer  func() error
	)
	if cfg.Cache.RedisAddr != "" {
		rb, err := cache.NewRedisBackend(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			_ = inner.Close()
			return nil, err
		}
		backend, closer = rb, rb.Close
	}
	logger.Debug("store opened",
		slog.String("driver", cfg.Store.Driver),
		slog.Bool("redis_cache", cfg.Cache.RedisAddr != ""))

	cached := NewCached(inner, cache.NewRecords(backend, cfg.CacheTTL()), logger)
	if closer == nil {
		return cached, nil
	}
	return &closingStore{Cached: cached, closeCache: closer}, nil
}

// closingStore also releases the cache connection on Close.
type closingStore struct {
	*Cached
	closeCache func() error
}

func (s *closingStore) Close() error {
	return errors.Join(s.Cached.Close(), s.closeCache())
}
