package findata

import (
	"context"
	"strings"
	"sync"
	"time"
)

// SnapshotFetcher is satisfied by *Client.
type SnapshotFetcher interface {
	GetPriceSnapshot(ctx context.Context, ticker string) (*PriceSnapshot, error)
}

// SnapshotCache keeps price snapshots for a short TTL. Errors are not cached.
type SnapshotCache struct {
	fetcher SnapshotFetcher
	ttl     time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]*cachedSnapshot
}

type cachedSnapshot struct {
	snapshot  *PriceSnapshot
	fetchedAt time.Time
}

// NewSnapshotCache creates a new snapshot cache
func NewSnapshotCache(fetcher SnapshotFetcher, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		cache:   make(map[string]*cachedSnapshot),
	}
}

// GetPriceSnapshot gets a snapshot from cache or fetches it
func (sc *SnapshotCache) GetPriceSnapshot(ctx context.Context, ticker string) (*PriceSnapshot, error) {
	key := strings.ToUpper(ticker)

	sc.mu.RLock()
	cached, exists := sc.cache[key]
	sc.mu.RUnlock()

	if exists && sc.now().Sub(cached.fetchedAt) < sc.ttl {
		return cached.snapshot, nil
	}

	snapshot, err := sc.fetcher.GetPriceSnapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	sc.cache[key] = &cachedSnapshot{
		snapshot:  snapshot,
		fetchedAt: sc.now(),
	}
	sc.mu.Unlock()

	return snapshot, nil
}

// CleanupExpired removes expired entries from cache
func (sc *SnapshotCache) CleanupExpired() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := sc.now()
	for key, cached := range sc.cache {
		if now.Sub(cached.fetchedAt) >= sc.ttl {
			delete(sc.cache, key)
		}
	}
}

// Len is the number of cached entries, expired or not.
func (sc *SnapshotCache) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}
