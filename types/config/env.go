package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/RezaEskandarii/cronfire/custom_errors"
)

// Environment variables understood by WithEnv.
const (
	EnvConfigFile = "CONFIG_FILE"

	EnvStoreDriver       = "STORE_DRIVER"
	EnvDBHost            = "DB_HOST"
	EnvDBPort            = "DB_PORT"
	EnvDBName            = "DB_NAME"
	EnvDBUser            = "DB_USER"
	EnvDBPassword        = "DB_PASSWORD"
	EnvDBSSLMode         = "DB_SSLMODE"
	EnvSQLitePath        = "SQLITE_PATH"
	EnvPoolMin           = "DB_POOL_MIN"
	EnvPoolMax           = "DB_POOL_MAX"
	EnvConnectRetries    = "DB_CONNECT_RETRIES"
	EnvConnectRetryDelay = "DB_CONNECT_RETRY_DELAY"

	EnvQueueDriver   = "QUEUE_DRIVER"
	EnvQueueName     = "QUEUE_NAME"
	EnvRedisHost     = "REDIS_HOST"
	EnvRedisPort     = "REDIS_PORT"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvRabbitMQURL   = "RABBITMQ_URL"

	EnvSchedulerInterval = "SCHEDULER_INTERVAL"
	EnvSchedulerTimezone = "SCHEDULER_TIMEZONE"

	EnvWorkerID         = "WORKER_ID"
	EnvWorkerPopTimeout = "WORKER_POP_TIMEOUT"
	EnvWorkerBackoffMin = "WORKER_BACKOFF_MIN"
	EnvWorkerBackoffMax = "WORKER_BACKOFF_MAX"

	EnvLogLevel    = "LOG_LEVEL"
	EnvLogFormat   = "LOG_FORMAT"
	EnvMetricsAddr = "METRICS_ADDR"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// WithEnv overlays values found through lookup. A nil lookup reads the process environment.
// Durations accept either a plain number of seconds or a Go duration string.
func WithEnv(lookup LookupFunc) Option {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return func(c *CronfireConfig) error {
		e := envReader{lookup: lookup, errs: &custom_errors.ValidationError{}}

		if v, ok := e.get(EnvStoreDriver); ok {
			d, err := ParseStorageDriver(v)
			e.fail(EnvStoreDriver, err)
			if err == nil {
				c.Database.Driver = d
			}
		}
		e.str(EnvDBHost, &c.Database.Host)
		e.int(EnvDBPort, &c.Database.Port)
		e.str(EnvDBName, &c.Database.Name)
		e.str(EnvDBUser, &c.Database.User)
		e.str(EnvDBPassword, &c.Database.Password)
		e.str(EnvDBSSLMode, &c.Database.SSLMode)
		e.str(EnvSQLitePath, &c.Database.SQLitePath)
		e.int(EnvPoolMin, &c.Database.PoolMinSize)
		e.int(EnvPoolMax, &c.Database.PoolMaxSize)
		e.int(EnvConnectRetries, &c.Database.ConnectRetries)
		e.duration(EnvConnectRetryDelay, &c.Database.ConnectRetryDelay)

		if v, ok := e.get(EnvQueueDriver); ok {
			d, err := ParseQueueDriver(v)
			e.fail(EnvQueueDriver, err)
			if err == nil {
				c.Queue.Driver = d
			}
		}
		e.str(EnvQueueName, &c.Queue.Name)
		e.str(EnvRedisHost, &c.Queue.RedisHost)
		e.int(EnvRedisPort, &c.Queue.RedisPort)
		e.str(EnvRedisPassword, &c.Queue.RedisPassword)
		e.int(EnvRedisDB, &c.Queue.RedisDB)
		e.str(EnvRabbitMQURL, &c.Queue.RabbitMQURL)

		e.duration(EnvSchedulerInterval, &c.Scheduler.Interval)
		e.str(EnvSchedulerTimezone, &c.Scheduler.Timezone)

		e.str(EnvWorkerID, &c.Worker.ID)
		e.duration(EnvWorkerPopTimeout, &c.Worker.PopTimeout)
		e.duration(EnvWorkerBackoffMin, &c.Worker.BackoffMin)
		e.duration(EnvWorkerBackoffMax, &c.Worker.BackoffMax)

		e.str(EnvLogLevel, &c.Log.Level)
		e.str(EnvLogFormat, &c.Log.Format)
		e.str(EnvMetricsAddr, &c.MetricsAddr)

		if e.errs.HasError() {
			return e.errs
		}
		return nil
	}
}

type envReader struct {
	lookup LookupFunc
	errs   *custom_errors.ValidationError
}

// get ignores unset and blank variables so they fall back to defaults.
func (e envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e envReader) fail(key string, err error) {
	if err != nil {
		e.errs.Add(fmt.Errorf("%s: %w", key, err))
	}
}

func (e envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e envReader) int(key string, dst *int) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, fmt.Errorf("invalid integer %q", v))
		return
	}
	*dst = n
}

func (e envReader) duration(key string, dst *time.Duration) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := ParseSeconds(v)
	if err != nil {
		e.fail(key, err)
		return
	}
	*dst = d
}

// ParseSeconds reads "10" or "1.5" as seconds and anything else as a Go duration.
func ParseSeconds(v string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}
