package cachestore

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	data map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeRedis) MSet(_ context.Context, pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		f.data[pairs[i].(string)] = pairs[i+1].(string)
	}
	return nil
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	val, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return val, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeRedis) Keys(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var matched []string
	for key := range f.data {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}
	return matched, nil
}

func (f *fakeRedis) CacheKey(generation, method, url string) string {
	return "nesttask:cache:" + generation + ":" + strings.ToUpper(method) + ":" + url
}

func (f *fakeRedis) CacheGenerationPattern(generation string) string {
	return "nesttask:cache:" + generation + ":*"
}

func (f *fakeRedis) CachePattern() string {
	return "nesttask:cache:*"
}

func TestRedisStoreRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	store := &RedisStore{client: fake}
	ctx := context.Background()

	entry := Entry{URL: "https://app.example.com/", Method: "get", StatusCode: 200, Body: []byte("shell")}
	if err := store.Put(ctx, "nesttask-v1", entry); err != nil {
		t.Fatalf("put: %v", err)
	}

	raw, ok := fake.data["nesttask:cache:nesttask-v1:GET:https://app.example.com/"]
	if !ok {
		t.Fatalf("expected key to be written, have %v", fake.data)
	}
	var persisted Entry
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("stored value is not valid JSON: %v", err)
	}
	if persisted.StatusCode != 200 {
		t.Fatalf("unexpected persisted entry %+v", persisted)
	}

	got, hit, err := store.Get(ctx, "nesttask-v1", "GET", entry.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !hit {
		t.Fatal("expected a hit")
	}
	if string(got.Body) != "shell" {
		t.Fatalf("unexpected body %q", got.Body)
	}
}

func TestRedisStoreMissIsNotError(t *testing.T) {
	store := &RedisStore{client: newFakeRedis()}

	entry, hit, err := store.Get(context.Background(), "nesttask-v1", "GET", "https://app.example.com/missing")
	if err != nil {
		t.Fatalf("miss should not be an error, got %v", err)
	}
	if hit || entry != nil {
		t.Fatal("expected a miss")
	}
}

func TestRedisStoreGenerationsAndDrop(t *testing.T) {
	fake := newFakeRedis()
	store := &RedisStore{client: fake}
	ctx := context.Background()

	_ = store.Put(ctx, "nesttask-v1", Entry{URL: "/a", Method: "GET"})
	_ = store.Put(ctx, "nesttask-v1", Entry{URL: "/b", Method: "GET"})
	_ = store.Put(ctx, "nesttask-v2", Entry{URL: "/a", Method: "GET"})

	generations, err := store.Generations(ctx)
	if err != nil {
		t.Fatalf("generations: %v", err)
	}
	if len(generations) != 2 {
		t.Fatalf("expected 2 generations, got %v", generations)
	}

	if err := store.DropGeneration(ctx, "nesttask-v1"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if len(fake.data) != 1 {
		t.Fatalf("expected only the v2 entry left, have %v", fake.data)
	}
}

func TestRedisStorePutAllWritesOneBatch(t *testing.T) {
	fake := newFakeRedis()
	store := &RedisStore{client: fake}
	ctx := context.Background()

	entries := []Entry{
		{URL: "https://app.example.com/", Method: "get", StatusCode: 200, Body: []byte("index")},
		{URL: "https://app.example.com/offline.html", Method: "GET", StatusCode: 200, Body: []byte("offline")},
	}
	if err := store.PutAll(ctx, "nesttask-v2", entries); err != nil {
		t.Fatalf("put all: %v", err)
	}

	if len(fake.data) != 2 {
		t.Fatalf("expected 2 keys, have %v", fake.data)
	}
	if _, ok := fake.data["nesttask:cache:nesttask-v2:GET:https://app.example.com/offline.html"]; !ok {
		t.Fatalf("offline entry missing, have %v", fake.data)
	}

	got, hit, err := store.Get(ctx, "nesttask-v2", "GET", "https://app.example.com/")
	if err != nil || !hit {
		t.Fatalf("expected a hit (err %v)", err)
	}
	if got.StoredAt.IsZero() {
		t.Fatal("expected StoredAt stamped")
	}
}
