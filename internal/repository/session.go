package repository

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// SessionCache is an in-process TTL key-value store for import preview
// sessions. Expiry is enforced by the cache itself; callers only ever see
// present-or-absent.
type SessionCache struct {
	cache *gocache.Cache
}

// NewSessionCache creates a session cache. defaultTTL bounds entries whose
// callers pass a zero TTL; expired entries are purged twice per TTL window.
func NewSessionCache(defaultTTL time.Duration) *SessionCache {
	return &SessionCache{
		cache: gocache.New(defaultTTL, defaultTTL*2),
	}
}

// Set stores value under key for ttl.
func (s *SessionCache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.cache.Set(key, value, ttl)
}

// Get returns the value for key, or false when absent or expired.
func (s *SessionCache) Get(key string) ([]byte, bool) {
	v, found := s.cache.Get(key)
	if !found {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *SessionCache) Delete(key string) {
	s.cache.Delete(key)
}
