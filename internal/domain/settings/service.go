package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	cacheKey = "settings:app"
	cacheTTL = 5 * time.Minute
)

// Service reads and updates the store configuration. Reads go through a Redis
// cache that is invalidated explicitly on every update.
type Service struct {
	repo  Repository
	redis *redis.Client
}

// NewService creates settings service. The redis client may be nil.
func NewService(repo Repository, redis *redis.Client) *Service {
	return &Service{repo: repo, redis: redis}
}

// Get returns the current settings, falling back to defaults when the
// singleton row has never been written.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	stored, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = Defaults()
	}

	s.toCache(ctx, stored)
	return stored, nil
}

// Update persists new settings and invalidates the cache.
func (s *Service) Update(ctx context.Context, next *Settings) (*Settings, error) {
	next.ID = "app"
	if err := s.repo.Upsert(ctx, next); err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := s.redis.Del(ctx, cacheKey).Err(); err != nil {
			log.Warn().Err(err).Msg("settings cache invalidation failed")
		}
	}

	log.Info().
		Float64("commission_rate", next.CommissionRate).
		Int64("min_withdrawal", next.MinWithdrawal).
		Msg("settings updated")

	return s.repo.Get(ctx)
}

func (s *Service) fromCache(ctx context.Context) *Settings {
	if s.redis == nil {
		return nil
	}
	raw, err := s.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil
	}
	var cached Settings
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil
	}
	return &cached
}

func (s *Service) toCache(ctx context.Context, v *Settings) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("settings cache write failed")
	}
}
