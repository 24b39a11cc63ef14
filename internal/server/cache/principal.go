// Package cache holds the Redis-backed principal cache used by the auth
// resolver.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	principalKeyPrefix = "vb:principal:"

	DefaultTTL = 5 * time.Minute
)

// PrincipalCache stores principals as JSON with a TTL. Roles never change
// after signup, so the TTL only bounds memory and deleted-principal lag.
type PrincipalCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewPrincipalCache(client redis.Cmdable, ttl time.Duration) *PrincipalCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PrincipalCache{client: client, ttl: ttl}
}

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

func principalKey(id string) string {
	return principalKeyPrefix + id
}

// Get returns (nil, nil) on a miss.
func (c *PrincipalCache) Get(ctx context.Context, id string) (*models.Principal, error) {
	raw, err := c.client.Get(ctx, principalKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p models.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt value is treated as a miss and overwritten on the next Set.
		return nil, nil
	}
	return &p, nil
}

func (c *PrincipalCache) Set(ctx context.Context, p *models.Principal) error {
	if p == nil || p.ID == "" {
		return nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, principalKey(p.ID), raw, c.ttl).Err()
}

func (c *PrincipalCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, principalKey(id)).Err()
}
