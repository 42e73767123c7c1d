// Package dedupe tracks keys of requests that are still pending so that the
// same work is not queued twice.
package dedupe

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 1024

// Deduper records pending keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key is pending and records it if not.
	// Returns true if key was already pending.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key once its request has been handled or dropped.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper evicts the least recently recorded key once full, so a
// leaked key can never block its work forever.
type inMemoryDeduper struct {
	maxSize int
	keys    *lru.Cache[string, struct{}]
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	if d.maxSize <= 0 {
		d.maxSize = defaultMaxSize
	}
	// lru.New only fails on a non-positive size.
	d.keys, _ = lru.New[string, struct{}](d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	seen, _ := d.keys.ContainsOrAdd(key, struct{}{})
	return seen
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.keys.Remove(key)
}

func (d *inMemoryDeduper) Size() int64 {
	return int64(d.keys.Len())
}
