package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	dialTimeout = 5 * time.Second
	pingTimeout = 2 * time.Second
)

// Client wraps the go-redis client shared by the job queue and the chat fan-out.
type Client struct {
	*redis.Client
	logger *zap.Logger
}

// NewClient creates a Redis client and verifies connectivity.
func NewClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	})

	c := &Client{Client: rdb, logger: logger}
	if err := c.Healthy(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	logger.Info("redis client connected", zap.String("addr", addr), zap.Int("db", db))
	return c, nil
}

// Healthy pings Redis with a short deadline.
func (c *Client) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
