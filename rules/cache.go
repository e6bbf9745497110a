package rules

import "time"

// RulesCache holds the ordered list of active policy rules so that an
// evaluation does not have to re-sort the store on every decision
type RulesCache interface {
	// Get returns the cached rules in priority order, or nil on a miss
	Get() []*Rule

	// Set replaces the cached rules
	Set(rules []*Rule)

	// Invalidate drops the cached rules; the next Get misses
	Invalidate()

	// IsValid returns true if a Get would hit
	IsValid() bool
}

// CacheConfig controls cache expiry
type CacheConfig struct {
	// TTL bounds how long a cached rule list is served.
	// Zero disables expiry; the cache is then dropped only by Invalidate.
	TTL time.Duration
}

// DefaultCacheConfig returns a cache that never expires on its own
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 0}
}
