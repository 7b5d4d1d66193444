package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher fans events out on a Redis pub/sub channel for live dashboards.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher builds a publisher. A nil client makes Handle a no-op.
func NewRedisPublisher(client redis.UniversalClient, channel string, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Channel returns the tenant-scoped channel name.
func (p *RedisPublisher) Channel(tenantID string) string {
	if tenantID == "" {
		return p.channel
	}
	return p.channel + "." + tenantID
}

// Handle publishes the event. It is meant to be registered with SubscribeAll.
func (p *RedisPublisher) Handle(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(event.TenantID), body).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	p.logger.Debug("event published",
		zap.String("channel", p.Channel(event.TenantID)),
		zap.String("event_type", string(event.Type)))
	return nil
}
