package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RezaEskandarii/cronfire/types/config"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// PoolConfig bounds the connection pool and its startup retry policy.
type PoolConfig struct {
	MinSize    int
	MaxSize    int
	Retries    int
	RetryDelay time.Duration
}

// PoolConfigFrom extracts pool settings from the database config.
func PoolConfigFrom(c config.DatabaseConfig) PoolConfig {
	return PoolConfig{
		MinSize:    c.PoolMinSize,
		MaxSize:    c.PoolMaxSize,
		Retries:    c.ConnectRetries,
		RetryDelay: c.ConnectRetryDelay,
	}
}

// OpenPool opens a bounded pool and verifies it with a ping, retrying up to
// cfg.Retries times spaced by cfg.RetryDelay. On final failure the pool is
// closed and the last error returned.
func OpenPool(ctx context.Context, driverName, dsn string, cfg PoolConfig, log zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if cfg.MaxSize > 0 {
		db.SetMaxOpenConns(cfg.MaxSize)
	}
	db.SetMaxIdleConns(cfg.MinSize)

	attempts := max(cfg.Retries, 1)
	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			log.Info().Str("driver", driverName).Int("attempt", attempt).Msg("database pool ready")
			return db, nil
		}
		if attempt >= attempts {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).
			Dur("retry_in", cfg.RetryDelay).Msg("database not reachable, retrying")

		select {
		case <-time.After(cfg.RetryDelay):
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("connect %s: %w", driverName, ctx.Err())
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("connect %s after %d attempts: %w", driverName, attempts, err)
}

// Open builds the pool for the configured storage driver.
func Open(ctx context.Context, c config.DatabaseConfig, log zerolog.Logger) (*sql.DB, error) {
	db, err := OpenPool(ctx, c.Driver.SQLDriverName(), c.DSN(), PoolConfigFrom(c), log)
	if err != nil {
		return nil, err
	}
	if c.Driver == config.SQLite {
		// SQLite allows a single writer. The idle connection keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	return db, nil
}
