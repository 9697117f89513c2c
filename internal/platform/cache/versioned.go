package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "stallbook"

// Versioned is a Redis JSON cache whose keys embed a per-scope version, so a
// single Bump invalidates everything cached for that scope.
type Versioned struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewVersioned builds the cache. A nil client disables caching.
func NewVersioned(client *redis.Client, ttl time.Duration) *Versioned {
	return &Versioned{client: client, ttl: ttl}
}

func versionKey(scope string) string {
	return keyPrefix + ":" + scope + ":version"
}

// Version returns the scope version, initialising it when missing.
func (c *Versioned) Version(ctx context.Context, scope string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(scope), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(scope)).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes a versioned key for scope.
func (c *Versioned) Key(ctx context.Context, scope string, parts ...string) (string, error) {
	ver, err := c.Version(ctx, scope)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s:v%d", keyPrefix, scope, strings.Join(parts, ":"), ver), nil
}

// FetchJSON loads a cached value for scope/parts into dest or fills it via
// loader. Concurrent misses for one key share a single loader call. Redis
// failures fall back to the loader.
func (c *Versioned) FetchJSON(ctx context.Context, scope string, parts []string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		return load(ctx, dest, loader)
	}
	key, err := c.Key(ctx, scope, parts...)
	if err != nil {
		return load(ctx, dest, loader)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return load(ctx, dest, loader)
	}

	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Bump invalidates every key cached for scope. A missing version key is
// seeded with the initial version first so the bump always moves past it.
func (c *Versioned) Bump(ctx context.Context, scope string) error {
	if c == nil || c.client == nil {
		return nil
	}
	key := versionKey(scope)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 1, 0)
		pipe.Incr(ctx, key)
		return nil
	})
	return err
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
