package cachestore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryKey struct {
	method string
	url    string
}

// MemoryStore is an in-process Store used by tests and single-node dev runs.
type MemoryStore struct {
	mtx         sync.RWMutex
	generations map[string]map[memoryKey]Entry
}

// NewMemoryStore builds an empty in-memory cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{generations: make(map[string]map[memoryKey]Entry)}
}

func (s *MemoryStore) Put(_ context.Context, generation string, entry Entry) error {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	entry.Method = strings.ToUpper(entry.Method)

	s.mtx.Lock()
	defer s.mtx.Unlock()
	bucket, ok := s.generations[generation]
	if !ok {
		bucket = make(map[memoryKey]Entry)
		s.generations[generation] = bucket
	}
	bucket[memoryKey{method: entry.Method, url: entry.URL}] = entry
	return nil
}

func (s *MemoryStore) PutAll(_ context.Context, generation string, entries []Entry) error {
	now := time.Now().UTC()

	s.mtx.Lock()
	defer s.mtx.Unlock()
	bucket, ok := s.generations[generation]
	if !ok {
		bucket = make(map[memoryKey]Entry)
		s.generations[generation] = bucket
	}
	for _, entry := range entries {
		if entry.StoredAt.IsZero() {
			entry.StoredAt = now
		}
		entry.Method = strings.ToUpper(entry.Method)
		bucket[memoryKey{method: entry.Method, url: entry.URL}] = entry
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, generation, method, url string) (*Entry, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	bucket, ok := s.generations[generation]
	if !ok {
		return nil, false, nil
	}
	entry, ok := bucket[memoryKey{method: strings.ToUpper(method), url: url}]
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, generation, method, url string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if bucket, ok := s.generations[generation]; ok {
		delete(bucket, memoryKey{method: strings.ToUpper(method), url: url})
		if len(bucket) == 0 {
			delete(s.generations, generation)
		}
	}
	return nil
}

func (s *MemoryStore) Generations(context.Context) ([]string, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	generations := make([]string, 0, len(s.generations))
	for gen := range s.generations {
		generations = append(generations, gen)
	}
	sort.Strings(generations)
	return generations, nil
}

func (s *MemoryStore) DropGeneration(_ context.Context, generation string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.generations, generation)
	return nil
}
