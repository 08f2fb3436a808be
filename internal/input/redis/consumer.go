package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"samesky/internal/logger"
	"samesky/internal/timeconv"
	"samesky/internal/transform/voevent"
	"samesky/pkg/models"
)

// Config configures the Redis alert source.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

// Consumer reads VOEvent documents stored as elements of a Redis list.
type Consumer struct {
	client    *redis.Client
	key       string
	timeout   time.Duration
	converter timeconv.Converter
}

// NewConsumer creates a Redis alert source.
func NewConsumer(cfg Config, conv timeconv.Converter) (*Consumer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if conv == nil {
		conv = timeconv.UTCConverter{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Consumer{
		client:    client,
		key:       cfg.Key,
		timeout:   cfg.Timeout,
		converter: conv,
	}, nil
}

// Alerts reads the whole list without consuming it, in list order.
func (c *Consumer) Alerts(ctx context.Context) ([]models.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	docs, err := c.client.LRange(ctx, c.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read redis list %s: %w", c.key, err)
	}

	alerts := make([]models.Alert, 0, len(docs)*2)
	for i, doc := range docs {
		out, err := voevent.Parse([]byte(doc), c.converter)
		if err != nil {
			logger.Warnf("Skipping redis list element %d: %v", i, err)
			continue
		}
		alerts = append(alerts, out...)
	}
	logger.Infof("Loaded %d alert records from redis list %s", len(alerts), c.key)
	return alerts, nil
}

// Close closes the consumer.
func (c *Consumer) Close() error {
	return c.client.Close()
}
