package repository

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Prag-18/Reviva/internal/cache"
	"github.com/Prag-18/Reviva/internal/domain"
	"github.com/Prag-18/Reviva/pkg/log"
)

// CachedUserRepository serves user lookups from a cache, falling back to the
// wrapped repository. Concurrent misses for the same id share one query.
// Unknown users are not cached.
type CachedUserRepository struct {
	repo  UserRepository
	cache cache.UserCache
	ttl   time.Duration
	sf    singleflight.Group
}

func NewCachedUserRepository(repo UserRepository, userCache cache.UserCache, ttl time.Duration) *CachedUserRepository {
	return &CachedUserRepository{
		repo:  repo,
		cache: userCache,
		ttl:   ttl,
	}
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.cache.Get(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// Log error but continue to fetch from DB
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("user cache get error")
	}

	v, err, _ := r.sf.Do(id, func() (interface{}, error) {
		u, err := r.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := r.cache.Set(ctx, u, r.ttl); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Msg("user cache set error")
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u := *v.(*domain.User)
	return &u, nil
}
