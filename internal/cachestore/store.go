// Package cachestore holds versioned response caches. Each generation is an
// independent namespace; activating a new app version drops every generation
// except the current one.
package cachestore

import (
	"context"
	"net/http"
	"time"
)

// Entry is one cached response keyed by request method and URL.
type Entry struct {
	URL        string      `json:"url"`
	Method     string      `json:"method"`
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
}

// Store is the versioned response cache.
type Store interface {
	// Put stores the entry under the generation, replacing any previous
	// entry for the same method and URL.
	Put(ctx context.Context, generation string, entry Entry) error
	// Get returns the entry for the method/URL pair. The boolean reports
	// whether the entry existed; a miss is not an error.
	Get(ctx context.Context, generation, method, url string) (*Entry, bool, error)
	// PutAll commits every entry under the generation in one write, so a
	// reader never observes a partially installed set.
	PutAll(ctx context.Context, generation string, entries []Entry) error
	// Delete removes a single entry. Deleting a missing entry is a no-op.
	Delete(ctx context.Context, generation, method, url string) error
	// Generations lists every generation that currently holds entries.
	Generations(ctx context.Context) ([]string, error)
	// DropGeneration removes every entry belonging to the generation.
	DropGeneration(ctx context.Context, generation string) error
}
