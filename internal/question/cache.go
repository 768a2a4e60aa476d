package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultCacheTTL = 5 * time.Minute
	cacheGenKey     = "questions:gen"
)

// Cache stores question lookups in Redis under a generation number.
// Bumping the generation invalidates every entry at once; stale entries age out via TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Generation returns the current cache generation (0 when never bumped).
func (c *Cache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, cacheGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Bump invalidates all cached lookups.
func (c *Cache) Bump(ctx context.Context) error {
	return c.client.Incr(ctx, cacheGenKey).Err()
}

func (c *Cache) itemKey(gen int64, id string) string {
	return fmt.Sprintf("questions:%d:item:%s", gen, id)
}

func (c *Cache) listKey(gen int64) string {
	return fmt.Sprintf("questions:%d:all", gen)
}

// GetItem returns nil, nil on a miss.
func (c *Cache) GetItem(ctx context.Context, gen int64, id string) (*Question, error) {
	var q Question
	ok, err := c.get(ctx, c.itemKey(gen, id), &q)
	if err != nil || !ok {
		return nil, err
	}
	return &q, nil
}

func (c *Cache) SetItem(ctx context.Context, gen int64, q Question) error {
	return c.set(ctx, c.itemKey(gen, q.ID), q)
}

// GetList returns nil, nil on a miss.
func (c *Cache) GetList(ctx context.Context, gen int64) ([]Question, error) {
	var qs []Question
	ok, err := c.get(ctx, c.listKey(gen), &qs)
	if err != nil || !ok {
		return nil, err
	}
	return qs, nil
}

func (c *Cache) SetList(ctx context.Context, gen int64, qs []Question) error {
	return c.set(ctx, c.listKey(gen), qs)
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// CachedStore is a read-through cache in front of another Store.
// Cache failures are logged and fall back to the underlying store.
type CachedStore struct {
	store  Store
	cache  *Cache
	logger zerolog.Logger
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(store Store, cache *Cache, logger zerolog.Logger) *CachedStore {
	return &CachedStore{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "question_cache").Logger(),
	}
}

func (s *CachedStore) List(ctx context.Context) ([]Question, error) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache generation lookup failed")
		return s.store.List(ctx)
	}
	if cached, err := s.cache.GetList(ctx, gen); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("cache list read failed")
	}

	qs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetList(ctx, gen, qs); err != nil {
		s.logger.Warn().Err(err).Msg("cache list write failed")
	}
	return qs, nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (Question, error) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache generation lookup failed")
		return s.store.Get(ctx, id)
	}
	if cached, err := s.cache.GetItem(ctx, gen, id); err == nil && cached != nil {
		return *cached, nil
	} else if err != nil {
		s.logger.Warn().Err(err).Str("question_id", id).Msg("cache item read failed")
	}

	q, err := s.store.Get(ctx, id)
	if err != nil {
		return Question{}, err
	}
	if err := s.cache.SetItem(ctx, gen, q); err != nil {
		s.logger.Warn().Err(err).Str("question_id", id).Msg("cache item write failed")
	}
	return q, nil
}

func (s *CachedStore) Insert(ctx context.Context, q Question) (Question, error) {
	out, err := s.store.Insert(ctx, q)
	if err == nil {
		s.invalidate(ctx)
	}
	return out, err
}

func (s *CachedStore) Replace(ctx context.Context, q Question) (Question, error) {
	out, err := s.store.Replace(ctx, q)
	if err == nil {
		s.invalidate(ctx)
	}
	return out, err
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if err == nil {
		s.invalidate(ctx)
	}
	return err
}

func (s *CachedStore) Close() error {
	return s.store.Close()
}

func (s *CachedStore) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Error().Err(err).Msg("cache invalidation failed")
	}
}
