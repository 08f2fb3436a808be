package obslog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"samesky/internal/logger"
	"samesky/pkg/models"
)

// RedisConfig configures the Redis log cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisCache stores successfully retrieved logs in Redis in front of another provider.
// Unavailable and malformed results are never cached.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	inner  Provider
}

// NewRedisCache constructs a Redis-backed cache around inner.
func NewRedisCache(cfg RedisConfig, inner Provider) (*RedisCache, error) {
	if inner == nil {
		return nil, errors.New("redis cache needs an inner provider")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "samesky"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis obslog cache: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: strings.TrimSpace(cfg.KeyPrefix),
		ttl:    cfg.TTL,
		inner:  inner,
	}, nil
}

// ForDate serves a cached log or loads and caches it from the inner provider.
func (c *RedisCache) ForDate(ctx context.Context, date models.Date) (Result, error) {
	key := c.dateKey(date)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var obs []models.Observation
		if jerr := json.Unmarshal(raw, &obs); jerr == nil {
			logger.Debugf("Observation log cache hit: %s (%d rows)", date, len(obs))
			return OK(obs), nil
		}
		logger.Warnf("Discarding undecodable cached log %s", key)
	case errors.Is(err, redis.Nil):
	default:
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		logger.Warnf("Redis get %s failed: %v", key, err)
	}

	res, err := c.inner.ForDate(ctx, date)
	if err != nil || res.Status != StatusOK {
		return res, err
	}

	obs := res.Observations
	if obs == nil {
		obs = []models.Observation{}
	}
	payload, err := json.Marshal(obs)
	if err != nil {
		return Result{}, fmt.Errorf("encode observation log %s: %w", date, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.Warnf("Redis set %s failed: %v", key, err)
	}
	return res, nil
}

// Close closes Redis resources.
func (c *RedisCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *RedisCache) dateKey(date models.Date) string {
	return c.prefix + ":obslog:" + date.String()
}
