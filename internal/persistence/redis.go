package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/processflow/internal/config"
)

const redisPingTimeout = 2 * time.Second

// Redis holds the optional client used for real-time event fan-out.
type Redis struct {
	client *redis.Client
}

// NewRedis builds a client from REDIS_URL or REDIS_ADDR. With neither set
// the wrapper is disabled. An unreachable server is logged and tolerated
// since publishing is best effort.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		logger.Warn("REDIS_ADDR not provided; event fan-out disabled")
		return &Redis{}, nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable; events will be dropped until it recovers",
			zap.String("addr", opts.Addr), zap.Error(err))
	} else {
		logger.Info("event fan-out connected", zap.String("addr", opts.Addr), zap.String("channel", cfg.EventsChannel))
	}
	return &Redis{client: client}, nil
}

// redisOptions resolves the connection options. A URL wins over the
// discrete fields; nil means fan-out is disabled.
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("redis: parse url: %w", err)
		}
		return opts, nil
	}
	if cfg.Addr == "" {
		return nil, nil
	}
	return &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// Client returns the underlying client, nil when disabled.
func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

// Enabled reports whether a client was configured.
func (r *Redis) Enabled() bool {
	return r.Client() != nil
}

// Ping checks connectivity. A disabled client reports an error.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return errors.New("redis not configured")
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.client.Close()
	}
}
