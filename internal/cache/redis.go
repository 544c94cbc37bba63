package cache

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadCountKey = "console:notifications:unread"

type Client interface {
	GetUnreadCount() (int, error)
	SetUnreadCount(count int) error
	InvalidateUnreadCount() error
	IncrWithTTL(key string, window time.Duration) (int64, error)
	Close() error
}

// ErrCacheMiss is returned by GetUnreadCount when no value is cached.
var ErrCacheMiss = redis.Nil

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisClient() (*RedisCache, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			opts.DB = db
		}
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{rdb: rdb}, nil
}

func (c *RedisCache) GetUnreadCount() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := c.rdb.Get(ctx, unreadCountKey).Result()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}

func (c *RedisCache) SetUnreadCount(count int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return c.rdb.Set(ctx, unreadCountKey, count, 5*time.Minute).Err()
}

func (c *RedisCache) InvalidateUnreadCount() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return c.rdb.Del(ctx, unreadCountKey).Err()
}

// IncrWithTTL bumps a rate-limit counter, setting the window expiry
// when the key is first created.
func (c *RedisCache) IncrWithTTL(key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
