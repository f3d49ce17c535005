package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/domain"
)

type RedisUserCache struct {
	client *redis.Client
	prefix string
}

func NewRedisUserCache(cfg config.RedisConfig) (*RedisUserCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisUserCacheFromClient(client, cfg.UserCachePrefix), nil
}

// NewRedisUserCacheFromClient wraps an existing client without pinging it.
func NewRedisUserCacheFromClient(client *redis.Client, prefix string) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisUserCache) key(userID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, userID)
}

func (c *RedisUserCache) Get(ctx context.Context, userID string) (*domain.User, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return &user, nil
}

func (c *RedisUserCache) Set(ctx context.Context, user *domain.User, ttl time.Duration) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.key(user.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisUserCache) Delete(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (c *RedisUserCache) Close() error {
	return c.client.Close()
}
