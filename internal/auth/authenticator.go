package auth

import (
	"context"
	"log"
	"sync"
	"time"

	"tank-monitor/analytics/internal/config"
)

// KeyResolver maps an API key to the group scope it may read.
type KeyResolver interface {
	GetAPIKey(ctx context.Context, apiKey string) (scope string, found bool, err error)
}

type cacheEntry struct {
	scope     string
	expiresAt time.Time
}

type Authenticator struct {
	localCache sync.Map
	keys       KeyResolver
	ttl        time.Duration
	staticKeys map[string]bool
	now        func() time.Time
}

func NewAuthenticator(cfg *config.Config, keys KeyResolver) *Authenticator {
	staticKeys := make(map[string]bool, len(cfg.StaticAPIKeys))
	for _, k := range cfg.StaticAPIKeys {
		if k != "" {
			staticKeys[k] = true
		}
	}

	return &Authenticator{
		keys:       keys,
		ttl:        time.Duration(cfg.AuthCacheTTLSeconds) * time.Second,
		staticKeys: staticKeys,
		now:        time.Now,
	}
}

// Resolve returns the caller's group scope ("" means every group) and
// whether the key is valid at all.
func (a *Authenticator) Resolve(ctx context.Context, apiKey string) (string, bool) {
	// Level 0: static config keys see everything
	if a.staticKeys[apiKey] {
		return "", true
	}

	// Level 1: in-memory cache
	if raw, ok := a.localCache.Load(apiKey); ok {
		entry := raw.(cacheEntry)
		if a.now().Before(entry.expiresAt) {
			return entry.scope, true
		}
		a.localCache.Delete(apiKey)
	}

	// Level 2: Redis lookup
	scope, found, err := a.keys.GetAPIKey(ctx, apiKey)
	if err != nil {
		log.Printf("auth: key lookup failed: %v", err)
		return "", false
	}
	if !found {
		return "", false
	}

	a.localCache.Store(apiKey, cacheEntry{
		scope:     scope,
		expiresAt: a.now().Add(a.ttl),
	})
	return scope, true
}
