package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/luckcash/luckcash-server/internal/domain/profile"
	"github.com/luckcash/luckcash-server/internal/domain/shared"
)

// ProfileCache implements profile.Cache using the generic Redis Cache.
//
// Read-through pattern: query handlers try the cache first, fall back to
// Postgres on miss, and populate the cache on the way out. Commands always
// invalidate after a successful write so the CAS version never goes stale.
type ProfileCache struct {
	cache *Cache
}

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{
		cache: cache,
	}
}

// Get gets a profile from cache. Returns ErrCacheMiss on miss.
func (c *ProfileCache) Get(ctx context.Context, profileID string) (*profile.Profile, error) {
	var p profile.Profile
	key := ProfileKey(profileID)
	if err := c.cache.Get(ctx, key, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Set stores a profile in cache.
func (c *ProfileCache) Set(ctx context.Context, p *profile.Profile, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	return c.cache.Set(ctx, ProfileKey(p.ID), p, ttl)
}

// Delete removes a profile from cache.
func (c *ProfileCache) Delete(ctx context.Context, profileID string) error {
	return c.cache.Delete(ctx, ProfileKey(profileID))
}

// GetByEmail gets a profile from cache by email via a secondary index key.
func (c *ProfileCache) GetByEmail(ctx context.Context, email shared.Email) (*profile.Profile, error) {
	key := fmt.Sprintf("%semail:%s", PrefixProfile, email)
	var p profile.Profile
	if err := c.cache.Get(ctx, key, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetByEmail stores a profile in cache under its email index key.
func (c *ProfileCache) SetByEmail(ctx context.Context, p *profile.Profile, ttl time.Duration) error {
	if p == nil {
		return nil
	}
	key := fmt.Sprintf("%semail:%s", PrefixProfile, p.Email)
	return c.cache.Set(ctx, key, p, ttl)
}

// Invalidate invalidates every cache key for a profile, the email index
// included when the profile is still readable by ID.
func (c *ProfileCache) Invalidate(ctx context.Context, profileID string) error {
	p, err := c.Get(ctx, profileID)
	if err == nil && p != nil {
		key := fmt.Sprintf("%semail:%s", PrefixProfile, p.Email)
		if delErr := c.cache.Delete(ctx, key); delErr != nil {
			return delErr
		}
	} else if err != nil && !errors.Is(err, ErrCacheMiss) {
		return err
	}

	return c.cache.Delete(ctx, ProfileKey(profileID))
}

// InvalidateAll clears all cached profiles.
func (c *ProfileCache) InvalidateAll(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixProfile+"*")
}
