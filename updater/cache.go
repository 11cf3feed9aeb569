package updater

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cachedRelease struct {
	release  StoreRelease
	storedAt time.Time
}

// CachedStore memoizes successful lookups of another Store in a bounded LRU.
// Entries older than the TTL are dropped on read, so the cache runs no
// background goroutine and needs no Close. Failed lookups are not cached so
// a retry reaches the store.
type CachedStore struct {
	next  Store
	ttl   time.Duration
	now   func() time.Time
	cache *lru.Cache[string, cachedRelease]
}

// NewCachedStore wraps next with room for size entries kept for ttl.
// A size below 1 is raised to 1; a ttl of 0 or less never expires entries.
func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	if size < 1 {
		size = 1
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, cachedRelease](size)
	return &CachedStore{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		cache: cache,
	}
}

func (s *CachedStore) LatestRelease(ctx context.Context, bundleID string) *StoreRelease {
	if entry, ok := s.cache.Get(bundleID); ok {
		if s.ttl <= 0 || s.now().Sub(entry.storedAt) < s.ttl {
			rel := entry.release
			return &rel
		}
		s.cache.Remove(bundleID)
	}

	rel := s.next.LatestRelease(ctx, bundleID)
	if rel != nil {
		s.cache.Add(bundleID, cachedRelease{release: *rel, storedAt: s.now()})
	}
	return rel
}

// Len reports the number of cached releases, expired ones included until
// they are next read
func (s *CachedStore) Len() int {
	return s.cache.Len()
}

// Purge drops every cached release
func (s *CachedStore) Purge() {
	s.cache.Purge()
}
