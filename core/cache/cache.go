package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"smart-planner/core/logger"

	"github.com/redis/go-redis/v9"
)

// Cache is the small key/value surface the modules need from redis.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	Close() error
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(ctx context.Context, cfg RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Cache:Init:Ping", "addr", cfg.Addr, "error", err)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("Cache:Init:Success", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

// Get decodes the JSON value under key into dest. A missing key is (false, nil).
func (r *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.client.Set(ctx, key, raw, ttl).Err()
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
}

func (r *redisCache) ReleaseLock(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
