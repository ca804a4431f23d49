package app

import (
	"database/sql"

	"github.com/RezaEskandarii/cronfire/internal/queue"
	"github.com/RezaEskandarii/cronfire/internal/task/builtin"
	"github.com/prometheus/client_golang/prometheus"
)

// ContainerOption configures Container creation. Used for testing and customization.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	// Optional: inject custom DB instead of creating from config
	db       *sql.DB
	dialer   queue.Dialer
	registry *prometheus.Registry
	tasks    builtin.Options
}

// WithDB injects a custom database connection. Useful for testing.
func WithDB(db *sql.DB) ContainerOption {
	return func(c *containerConfig) {
		c.db = db
	}
}

// WithDialer replaces the queue dialer built from config.
func WithDialer(d queue.Dialer) ContainerOption {
	return func(c *containerConfig) {
		c.dialer = d
	}
}

// WithPrometheusRegistry registers metrics on reg instead of a fresh registry.
func WithPrometheusRegistry(reg *prometheus.Registry) ContainerOption {
	return func(c *containerConfig) {
		c.registry = reg
	}
}

// WithTaskOptions tunes the built-in tasks.
func WithTaskOptions(opts builtin.Options) ContainerOption {
	return func(c *containerConfig) {
		c.tasks = opts
	}
}
