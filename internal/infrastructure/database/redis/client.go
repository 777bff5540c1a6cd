// Package redis provides the Redis client, the analysis result cache and the
// distributed lock guarding the recovery sweep.
package redis

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// Client wraps the go-redis client with configuration-driven key prefixing.
type Client struct {
	rdb       *redis.Client
	cfg       config.RedisConfig
	log       logging.Logger
	closeOnce sync.Once
}

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	poolSize := cfg.PoolSize
	if poolSize == 0 {
		poolSize = 10 * runtime.GOMAXPROCS(0)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "redis is unreachable")
	}

	log.Info("connected to Redis", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return &Client{rdb: rdb, cfg: cfg, log: log}, nil
}

// NewClientFromRDB wraps an existing go-redis client.  Used by tests with
// miniredis-style fakes.
func NewClientFromRDB(rdb *redis.Client, cfg config.RedisConfig, log logging.Logger) *Client {
	return &Client{rdb: rdb, cfg: cfg, log: log}
}

// RDB exposes the underlying go-redis client.
func (c *Client) RDB() *redis.Client {
	return c.rdb
}

// Key prefixes k with the configured namespace.
func (c *Client) Key(k string) string {
	if c.cfg.KeyPrefix == "" {
		return k
	}
	return c.cfg.KeyPrefix + ":" + k
}

// HealthCheck pings Redis, returning ErrCodeStorage when it is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "redis health check failed")
	}
	return nil
}

// Close shuts the connection pool down.  Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.rdb.Close()
		c.log.Info("redis client closed")
	})
	return err
}
