package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/Linxify/config"
	"go.uber.org/zap"
)

const (
	pingTimeout      = 5 * time.Second
	retryBackoffBase = 500 * time.Millisecond
)

// NewClient builds the Redis client shared by sessions and rate limiting. The
// startup PING is retried with linear backoff so the server can come up
// alongside Redis in compose.
func NewClient(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := pingWithRetry(ctx, rdb, cfg.ConnectAttempts, logger); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", rdb.Options().Addr, err)
	}
	return rdb, nil
}

func pingWithRetry(ctx context.Context, rdb redis.Cmdable, attempts int, logger *zap.Logger) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		logger.Warn("redis not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoffBase):
		}
	}
	return err
}
