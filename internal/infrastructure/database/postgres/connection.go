// Package postgres manages the PostgreSQL connection pool and schema
// migrations for the PatentSentinel platform.
package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/turtacn/PatentSentinel/internal/config"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// Connection owns the pgx connection pool shared by all repositories.
type Connection struct {
	pool      *pgxpool.Pool
	cfg       config.DatabaseConfig
	log       logging.Logger
	closeOnce sync.Once
}

// NewConnection opens a pooled connection to PostgreSQL and verifies it with a
// ping before returning.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "invalid database configuration")
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to create connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "database is unreachable")
	}

	log.Info("connected to PostgreSQL",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName))

	return &Connection{pool: pool, cfg: cfg, log: log}, nil
}

// Pool exposes the underlying pool for repository construction.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// HealthCheck pings the database, returning ErrCodeStorage when it is down.
func (c *Connection) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "database health check failed")
	}
	return nil
}

// Close releases the pool.  Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.pool.Close()
		c.log.Info("PostgreSQL connection pool closed")
	})
}

// RunMigrations applies all pending up-migrations from the configured
// migration directory.  A schema that is already current is not an error.
func (c *Connection) RunMigrations() error {
	if c.cfg.MigrationPath == "" {
		c.log.Warn("migration path not configured, skipping migrations")
		return nil
	}

	db := stdlib.OpenDBFromPool(c.pool)
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to initialise migration driver")
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+c.cfg.MigrationPath, c.cfg.DBName, driver)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to initialise migrator")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Wrap(err, errors.ErrCodeStorage, "migration failed")
	}

	version, dirty, _ := m.Version()
	c.log.Info("database schema is up to date",
		logging.Any("version", version),
		logging.Bool("dirty", dirty))
	return nil
}
