package reconcile

import (
	"time"

	"bitbucket.org/mmdatafocus/fieldsales_backend/config"
)

const matchCacheKeyPrefix = "ExternalMatch:"

// MatchCache is a read-through cache of match results keyed by the normalized
// local name. It only saves the repeated full-candidate-list read; a cache
// miss or a cold redis simply falls back to matching from scratch.
type MatchCache struct {
	ttl time.Duration
}

func NewMatchCache() *MatchCache {
	ttlSeconds := config.IntFromEnv("MATCH_CACHE_TTL_SECONDS", 3600)
	return &MatchCache{ttl: time.Duration(ttlSeconds) * time.Second}
}

func (c *MatchCache) key(localName string) string {
	return matchCacheKeyPrefix + Normalize(localName)
}

func (c *MatchCache) Get(localName string) (MatchResult, bool) {
	var result MatchResult
	exists, err := config.GetRedisObject(c.key(localName), &result)
	if err != nil || !exists {
		return MatchResult{}, false
	}
	return result, true
}

func (c *MatchCache) Set(result MatchResult) {
	// Best effort; a write failure only costs the next lookup a re-match.
	_ = config.SetRedisObject(c.key(result.LocalName), result, c.ttl)
}

// Invalidate drops the cached match for a local name, e.g. after external
// customers are renamed.
func (c *MatchCache) Invalidate(localName string) error {
	return config.RemoveRedisKey(c.key(localName))
}
