// Package cache provides the optional Redis-backed analysis result cache.
// Results are keyed by content hash so identical submissions skip
// re-analysis. An empty REDIS_HOST disables caching entirely.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/keshavgujrathi/scholariq/internal/config"
	"github.com/keshavgujrathi/scholariq/internal/health"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// ResultCache stores analysis results under content-hash keys.
type ResultCache interface {
	Get(ctx context.Context, key string) (map[string]any, error)
	Set(ctx context.Context, key string, results map[string]any) error
}

// resultTTL keeps cached analyses for a day; content rarely changes under
// the same hash, but a bounded TTL keeps a dev Redis from growing forever.
const resultTTL = 24 * time.Hour

// cmdable is the subset of the go-redis client used here, extracted so
// tests can inject a fake without a live server.
type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisCache is a ResultCache backed by go-redis with a circuit breaker
// around every call.
type RedisCache struct {
	client cmdable
	cb     *gobreaker.CircuitBreaker
}

// New builds a RedisCache from config, or returns nil when no Redis host is
// configured. A nil *RedisCache is a valid "disabled" cache.
func New(cfg config.RedisConfig, cb *gobreaker.CircuitBreaker) *RedisCache {
	if cfg.Host == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCache{client: client, cb: cb}
}

func key(hash string) string {
	return "scholariq:analysis:" + hash
}

// Get fetches cached results for the given content hash.
func (c *RedisCache) Get(ctx context.Context, hash string) (map[string]any, error) {
	if c == nil {
		return nil, ErrMiss
	}

	// A miss is not a failure; it must not count against the breaker.
	val, err := c.cb.Execute(func() (any, error) {
		data, err := c.client.Get(ctx, key(hash)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("redis get: %w", err)
		}
		var results map[string]any
		if err := json.Unmarshal(data, &results); err != nil {
			return nil, fmt.Errorf("decoding cached results: %w", err)
		}
		// A stored JSON null decodes to a nil map; treat it as a miss so
		// callers never receive a map they cannot write to.
		if len(results) == 0 {
			return nil, nil
		}
		return results, nil
	})
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrMiss
	}
	return val.(map[string]any), nil
}

// Set stores results under the given content hash.
func (c *RedisCache) Set(ctx context.Context, hash string, results map[string]any) error {
	if c == nil {
		return nil
	}

	_, err := c.cb.Execute(func() (any, error) {
		data, err := json.Marshal(results)
		if err != nil {
			return nil, fmt.Errorf("encoding results: %w", err)
		}
		if err := c.client.Set(ctx, key(hash), data, resultTTL).Err(); err != nil {
			return nil, fmt.Errorf("redis set: %w", err)
		}
		return nil, nil
	})
	return err
}

// Probe sends a PING and validates the PONG response.
func (c *RedisCache) Probe(ctx context.Context) health.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		val, err := c.client.Ping(ctx).Result()
		if err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		if val != "PONG" {
			return nil, fmt.Errorf("unexpected PING response: %q", val)
		}
		return nil, nil
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return health.ProbeResult{Name: "redis", OK: false, LatencyMs: latency, Error: errMsg}
	}

	return health.ProbeResult{Name: "redis", OK: true, LatencyMs: latency}
}
