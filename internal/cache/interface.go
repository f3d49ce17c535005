package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Prag-18/Reviva/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// UserCache stores user lookups keyed by user id.
type UserCache interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User, ttl time.Duration) error
	Delete(ctx context.Context, userIDs ...string) error
	Close() error
}
