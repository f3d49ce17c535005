package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/domain"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisUserCache_Key(t *testing.T) {
	c := NewRedisUserCacheFromClient(unreachableClient(), "chat:user")
	defer c.Close()

	assert.Equal(t, "chat:user:abc", c.key("abc"))
}

func TestRedisUserCache_UnreachableIsNotAMiss(t *testing.T) {
	c := NewRedisUserCacheFromClient(unreachableClient(), "chat:user")
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Get(ctx, "abc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))

	err = c.Set(ctx, &domain.User{ID: "abc"}, time.Minute)
	require.Error(t, err)
}

func TestRedisUserCache_DeleteNothing(t *testing.T) {
	c := NewRedisUserCacheFromClient(unreachableClient(), "chat:user")
	defer c.Close()

	assert.NoError(t, c.Delete(context.Background()))
}

func TestNewRedisUserCache_PingFailure(t *testing.T) {
	_, err := NewRedisUserCache(config.RedisConfig{Address: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
