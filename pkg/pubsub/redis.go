package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher using Redis PUBLISH.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis-based publisher.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisPublisherFromClient(client), nil
}

// NewRedisPublisherFromClient wraps an existing client.
func NewRedisPublisherFromClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish publishes an event to the specified channel.
func (r *RedisPublisher) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return r.client.Publish(ctx, channel, data).Err()
}

// Close closes the Redis client.
func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
