package geocode

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// Cache stores resolved coordinates keyed by ZIP code. Implementations log
// their own failures and report them as misses.
type Cache interface {
	Get(ctx context.Context, zip string) (Coordinates, bool)
	Set(ctx context.Context, zip string, coords Coordinates)
}

// MemoryCache is a bounded, expiring in-process cache.
type MemoryCache struct {
	lru *expirable.LRU[string, Coordinates]
}

// NewMemoryCache creates a cache holding at most size entries for ttl each.
// A size of zero means unbounded.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{lru: expirable.NewLRU[string, Coordinates](size, nil, ttl)}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, zip string) (Coordinates, bool) {
	coords, ok := m.lru.Get(zip)
	if ok {
		zap.L().Debug("geocode cache hit", zap.String("zip", zip))
	}
	return coords, ok
}

// Set implements Cache.
func (m *MemoryCache) Set(_ context.Context, zip string, coords Coordinates) {
	m.lru.Add(zip, coords)
}

// Len returns the number of live entries.
func (m *MemoryCache) Len() int {
	return m.lru.Len()
}
