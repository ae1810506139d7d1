package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores values as JSON strings. A zero TTL keeps keys forever.
type RedisCache[S any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache[S any](client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache[S] {
	return &RedisCache[S]{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisCache[S]) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *RedisCache[S]) Set(ctx context.Context, key string, val S) error {
	raw, err := sonic.MarshalString(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.client.Set(ctx, r.key(key), raw, r.ttl).Err()
}

func (r *RedisCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var val S
	raw, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return val, false, nil
	}
	if err != nil {
		return val, false, err
	}
	if err := sonic.UnmarshalString(raw, &val); err != nil {
		return val, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisCache[S]) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisCache[S]) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
