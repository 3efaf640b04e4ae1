// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
	Key      string // key holding the cache document
}

// RedisBackend keeps the document under a single key. SET replaces the value
// atomically.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// OpenRedis connects and pings the server.
func OpenRedis(cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Key == "" {
		return nil, errors.New("redis: key must not be empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisBackend{client: client, key: cfg.Key}, nil
}

// Name implements Backend.
func (b *RedisBackend) Name() string { return "redis" }

// Read implements Backend.
func (b *RedisBackend) Read(ctx context.Context) ([]byte, error) {
	val, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", b.key, err)
	}
	return val, nil
}

// Write implements Backend.
func (b *RedisBackend) Write(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", b.key, err)
	}
	return nil
}

// Close implements Backend.
func (b *RedisBackend) Close() error { return b.client.Close() }
