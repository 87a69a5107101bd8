package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"msigwallet/internal/application"
	"msigwallet/internal/config"
	"msigwallet/internal/infrastructure/mysql"
	"msigwallet/internal/infrastructure/sqlite"
)

// Journal is the activity store as the binaries use it.
type Journal interface {
	application.ActivitySink
	application.ActivityStore
	application.ActivityReader
	Ping(ctx context.Context) error
	Close() error
}

// Open picks the backend named by cfg.JournalDSN. MySQL journals are put
// behind the redis query cache when REDIS_ADDR is set; a cache that cannot
// be reached is logged and skipped.
func Open(cfg config.Config, logger *slog.Logger) (Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, dsn := cfg.JournalDriver()
	switch driver {
	case "sqlite":
		repo, err := sqlite.NewRepository(dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite journal: %w", err)
		}
		logger.Info("activity journal ready", "driver", driver, "path", dsn)
		return repo, nil
	default:
		base, err := mysql.NewRepository(dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql journal: %w", err)
		}
		cached, err := mysql.NewCachedRepository(base, mysql.CacheConfig{Addr: cfg.RedisAddr, TTL: cfg.CacheTTL})
		if err != nil {
			logger.Warn("redis cache disabled", "addr", cfg.RedisAddr, "err", err)
			return base, nil
		}
		logger.Info("activity journal ready", "driver", driver, "cache", cfg.RedisAddr != "")
		return cached, nil
	}
}

// PingWithTimeout is used by start-up checks.
func PingWithTimeout(j Journal, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return j.Ping(ctx)
}
