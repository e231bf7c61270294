// broker/publisher.go
package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OluwaPella/Stage-two-bankend/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher announces completed refreshes on a pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel, logger: logger.Named("publisher")}
}

func (p *RedisPublisher) PublishRefresh(ctx context.Context, event models.RefreshEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Info("published refresh event",
		zap.String("channel", p.channel),
		zap.String("event_type", event.EventType),
		zap.String("run_id", event.RunID),
	)
	return nil
}
