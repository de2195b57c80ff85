package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each document as a plain string value under "<namespace>:<key>"
type RedisBackend struct {
	client    *redis.Client
	namespace string
}

// NewRedisBackend connects to redisURL and verifies the connection
func NewRedisBackend(ctx context.Context, redisURL, namespace string) (*RedisBackend, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisBackendWithClient(client, namespace), nil
}

// NewRedisBackendWithClient wraps an existing client
func NewRedisBackendWithClient(client *redis.Client, namespace string) *RedisBackend {
	return &RedisBackend{client: client, namespace: namespace}
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) key(k string) string {
	return r.namespace + ":" + k
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return raw, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
