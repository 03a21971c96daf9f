package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sheikhshariarnehal/nesttask-edge/pkg/redis"
)

// redisStore defines the Redis operations the cache needs.
type redisStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	MSet(ctx context.Context, pairs ...any) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	CacheKey(generation, method, url string) string
	CacheGenerationPattern(generation string) string
	CachePattern() string
}

// RedisStore keeps cache entries in Redis so every gateway replica shares
// one cache.
type RedisStore struct {
	client redisStore
}

// NewRedisStore wraps the shared Redis client.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Put(ctx context.Context, generation string, entry Entry) error {
	if generation == "" {
		return fmt.Errorf("cache generation required")
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	entry.Method = strings.ToUpper(entry.Method)
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	key := s.client.CacheKey(generation, entry.Method, entry.URL)
	return s.client.Set(ctx, key, string(raw), 0)
}

// PutAll writes every entry with a single MSET so the generation appears
// fully populated or not at all.
func (s *RedisStore) PutAll(ctx context.Context, generation string, entries []Entry) error {
	if generation == "" {
		return fmt.Errorf("cache generation required")
	}
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	pairs := make([]any, 0, len(entries)*2)
	for _, entry := range entries {
		if entry.StoredAt.IsZero() {
			entry.StoredAt = now
		}
		entry.Method = strings.ToUpper(entry.Method)
		raw, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode cache entry: %w", err)
		}
		pairs = append(pairs, s.client.CacheKey(generation, entry.Method, entry.URL), string(raw))
	}
	return s.client.MSet(ctx, pairs...)
}

func (s *RedisStore) Get(ctx context.Context, generation, method, url string) (*Entry, bool, error) {
	key := s.client.CacheKey(generation, method, url)
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, generation, method, url string) error {
	return s.client.Del(ctx, s.client.CacheKey(generation, method, url))
}

func (s *RedisStore) Generations(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, s.client.CachePattern())
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var generations []string
	for _, key := range keys {
		gen := redis.GenerationFromKey(key)
		if gen == "" {
			continue
		}
		if _, ok := seen[gen]; ok {
			continue
		}
		seen[gen] = struct{}{}
		generations = append(generations, gen)
	}
	sort.Strings(generations)
	return generations, nil
}

func (s *RedisStore) DropGeneration(ctx context.Context, generation string) error {
	if generation == "" {
		return fmt.Errorf("cache generation required")
	}
	keys, err := s.client.Keys(ctx, s.client.CacheGenerationPattern(generation))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...)
}
