package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuelReschke/JobFox/internal/pkg/env"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned by Store.Get when the key does not exist.
var ErrMiss = errors.New("cache: miss")

// Store is a string key/value cache with expiry.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

var client *redis.Client

// SetupCache initializes the shared Redis client from CACHE_* settings.
// A failed ping is logged; callers fall back to the database on cache errors.
func SetupCache(ctx context.Context) *redis.Client {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	log := zap.L().Named("cache")
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("could not connect to cache", zap.String("addr", client.Options().Addr), zap.Error(err))
	} else {
		log.Info("connected to cache", zap.String("addr", client.Options().Addr))
	}
	return client
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache(context.Background())
	}
	return client
}

// RedisStore implements Store on go-redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a Store whose keys are namespaced by prefix.
func NewRedisStore(c *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: c, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
