package middleware

import (
	"context"
	"errors"
	"time"

	"labhive/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const rateLimitKeyPrefix = "labhive:ratelimit:"

// RedisStorage implements fiber.Storage so several API instances share one
// set of rate limiter counters.
type RedisStorage struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStorage(client *redis.Client) *RedisStorage {
	return &RedisStorage{client: client, timeout: 2 * time.Second}
}

// NewRateLimitStorage returns Redis-backed storage when
// RATE_LIMITING_REDIS_URL is set. A nil result makes the limiter keep its
// counters in process memory.
func NewRateLimitStorage(lc fx.Lifecycle, cfg *config.Config) (fiber.Storage, error) {
	if cfg.RateLimitRedisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.RateLimitRedisURL)
	if err != nil {
		return nil, err
	}
	storage := NewRedisStorage(redis.NewClient(opts))

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return storage.client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return storage.Close()
		},
	})
	return storage, nil
}

func (s *RedisStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.client.Get(ctx, rateLimitKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.Set(ctx, rateLimitKeyPrefix+key, val, exp).Err()
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.Del(ctx, rateLimitKeyPrefix+key).Err()
}

// Reset removes only the limiter's own keys.
func (s *RedisStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.client.Scan(ctx, 0, rateLimitKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
