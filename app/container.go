package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/RezaEskandarii/cronfire/internal/db"
	"github.com/RezaEskandarii/cronfire/internal/lock"
	"github.com/RezaEskandarii/cronfire/internal/metrics"
	"github.com/RezaEskandarii/cronfire/internal/queue"
	"github.com/RezaEskandarii/cronfire/internal/store"
	"github.com/RezaEskandarii/cronfire/internal/store/postgres"
	"github.com/RezaEskandarii/cronfire/internal/store/sqlite"
	"github.com/RezaEskandarii/cronfire/internal/task"
	"github.com/RezaEskandarii/cronfire/internal/task/builtin"
	"github.com/RezaEskandarii/cronfire/types/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Container holds all application dependencies. It is the single source of truth
// for dependency injection and ensures connections and services are created once.
//
// The job store is opened lazily by OpenStore since workers never touch it.
type Container struct {
	Config *config.CronfireConfig
	Log    zerolog.Logger

	Dialer   queue.Dialer
	Registry *task.Registry
	Metrics  *metrics.Metrics

	injectedDB *sql.DB

	mu       sync.Mutex
	DB       *sql.DB
	JobStore store.JobStore
}

// NewContainer wires everything that does not need a live connection.
// Pass WithDB or WithDialer to inject connections for testing.
func NewContainer(cfg *config.CronfireConfig, log zerolog.Logger, opts ...ContainerOption) (*Container, error) {
	opt := &containerConfig{}
	for _, o := range opts {
		o(opt)
	}

	dialer := opt.dialer
	if dialer == nil {
		d, err := queue.NewDialer(cfg.Queue)
		if err != nil {
			return nil, fmt.Errorf("init queue: %w", err)
		}
		dialer = d
	}

	registry := task.NewRegistry()
	if err := builtin.Register(registry, opt.tasks); err != nil {
		return nil, fmt.Errorf("register tasks: %w", err)
	}

	reg := opt.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Container{
		Config:     cfg,
		Log:        log,
		Dialer:     dialer,
		Registry:   registry,
		Metrics:    metrics.New(reg),
		injectedDB: opt.db,
	}, nil
}

// OpenStore builds the connection pool, creates the schema and returns the
// job store. Later calls return the same store.
func (c *Container) OpenStore(ctx context.Context) (store.JobStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.JobStore != nil {
		return c.JobStore, nil
	}

	dbCfg := c.Config.Database
	conn := c.injectedDB
	if conn == nil {
		var err error
		conn, err = db.Open(ctx, dbCfg, c.Log)
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
	}

	lockMgr := createDistributedLockManager(dbCfg.Driver, conn)
	if err := db.Init(ctx, conn, dbCfg.Driver, lockMgr, c.Log); err != nil {
		if c.injectedDB == nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("init schema: %w", err)
	}

	c.DB = conn
	c.JobStore = createJobStore(dbCfg.Driver, conn)
	return c.JobStore, nil
}

// Close releases the connection pool if one was opened.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.JobStore != nil {
		errs = append(errs, c.JobStore.Close())
		c.JobStore = nil
		c.DB = nil
	}
	return errors.Join(errs...)
}

func createJobStore(driver config.StorageDriver, conn *sql.DB) store.JobStore {
	if driver == config.SQLite {
		return sqlite.NewSQLiteJobStore(conn)
	}
	return postgres.NewPostgresJobStore(conn)
}

// SQLite has a single writer, so an in-process lock is enough.
func createDistributedLockManager(driver config.StorageDriver, conn *sql.DB) lock.DistributedLockManager {
	if driver == config.SQLite {
		return lock.NewLocalLockManager()
	}
	return lock.NewPostgresDistributedLockManager(conn)
}
