package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mindwell-ai/mindwell/pkg/types"
)

var _ types.Cache = (*Cache)(nil)

type Cache struct {
	redis redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *Cache {
	return &Cache{redis: client}
}

func (c *Cache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	return c.redis.SetEx(ctx, key, value, expiresAt).Err()
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	res, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return res, err
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// NoneCache is used when redis is not configured, every lookup is a miss.
type NoneCache struct{}

func (c NoneCache) SetEx(ctx context.Context, key, value string, expiresAt time.Duration) error {
	return nil
}

func (c NoneCache) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (c NoneCache) Ping(ctx context.Context) error {
	return nil
}

func setupRedis(cfg RedisConfig) (redis.UniversalClient, error) {
	opts := &redis.UniversalOptions{
		Addrs:    []string{cfg.Addr},
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 10
	}
	opts.DialTimeout = 5 * time.Second
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect redis %s, %w", cfg.Addr, err)
	}
	return client, nil
}
