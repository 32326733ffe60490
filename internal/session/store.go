// Package session keeps each user's pipeline state, isolated by session ID.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/course-creator/internal/cache"
	"github.com/spherical-ai/course-creator/internal/config"
	"github.com/spherical-ai/course-creator/internal/domain"
)

// Store persists SessionState values in a cache backend with a sliding TTL.
type Store struct {
	backend cache.Client
	ttl     time.Duration
}

// NewStore wraps a cache backend.
func NewStore(backend cache.Client, ttl time.Duration) *Store {
	return &Store{backend: backend, ttl: ttl}
}

// NewBackend builds the cache backend selected by configuration.
func NewBackend(cfg config.SessionConfig) (cache.Client, error) {
	switch cfg.Driver {
	case "redis":
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, domain.StoreError("connect session store", err)
		}
		return client, nil
	case "memory", "":
		return cache.NewMemoryClient(cfg.MaxEntries), nil
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown session driver %q", cfg.Driver), nil)
	}
}

// NewID returns a fresh, unguessable session ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func key(id string) string {
	return cache.CacheKey("session", id)
}

// Load returns the state for id, or an empty state when none is stored or it expired.
func (s *Store) Load(ctx context.Context, id string) (domain.SessionState, error) {
	data, err := s.backend.Get(ctx, key(id))
	if errors.Is(err, cache.ErrCacheMiss) {
		return domain.SessionState{}, nil
	}
	if err != nil {
		return domain.SessionState{}, domain.StoreError("load session", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.SessionState{}, domain.StoreError("decode session", err)
	}
	return state, nil
}

// Save writes the state for id and refreshes its TTL.
func (s *Store) Save(ctx context.Context, id string, state domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return domain.StoreError("encode session", err)
	}
	if err := s.backend.Set(ctx, key(id), data, s.ttl); err != nil {
		return domain.StoreError("save session", err)
	}
	return nil
}

// Delete tears down the session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, key(id)); err != nil {
		return domain.StoreError("delete session", err)
	}
	return nil
}

// Ping checks the backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

var _ domain.SessionStore = (*Store)(nil)
