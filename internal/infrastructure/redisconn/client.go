// Package redisconn manages the Redis connection used by the remember-me
// token store.
//
// The connection is optional: when Redis is disabled in configuration the
// service falls back to an in-memory store. All methods are safe for
// concurrent use.
package redisconn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iefihz/adminauth/internal/infrastructure/config"
)

// ErrDisabled is returned by Connect when Redis is disabled in configuration.
var ErrDisabled = errors.New("redis is disabled in configuration")

// defaultPingTimeout bounds the startup connectivity check.
const defaultPingTimeout = 5 * time.Second

// Client wraps a go-redis client with lifecycle management.
type Client struct {
	rdb *redis.Client
}

// Connect creates a Redis client and verifies connectivity with a ping.
func Connect(cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close() //nolint:errcheck // best effort cleanup on error path
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}

	return &Client{rdb: rdb}, nil
}

// Redis exposes the underlying go-redis client.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// HealthCheck verifies the Redis connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("closing redis connection: %w", err)
	}
	return nil
}
