package sourcecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is prepended to every Redis key unless another prefix is given.
const DefaultKeyPrefix = "tplmgr:"

// Redis is a Store backed by a Redis server.
type Redis struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

var _ Store = (*Redis)(nil)

// RedisConfig holds connection settings for NewRedisFromURL.
type RedisConfig struct {
	URL       string        // e.g. redis://localhost:6379/0
	TTL       time.Duration // 0 = no expiration
	KeyPrefix string        // default DefaultKeyPrefix
}

// NewRedis wraps an existing client. ttl <= 0 stores keys without expiration.
func NewRedis(client redis.UniversalClient, ttl time.Duration, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl, keyPrefix: keyPrefix}
}

// NewRedisFromURL connects to cfg.URL and pings the server before returning.
func NewRedisFromURL(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %w", ErrStore, err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrStore, err)
	}
	return NewRedis(client, cfg.TTL, cfg.KeyPrefix), nil
}

// Get reads key. redis.Nil is a miss.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %w", ErrStore, key, err)
	}
	return val, true, nil
}

// Set writes key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.keyPrefix+key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrStore, key, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
