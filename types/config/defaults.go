package config

import "time"

const (
	DefaultStorageDriver = Postgres
	DefaultDBHost        = "localhost"
	DefaultDBPort        = 5432
	DefaultDBName        = "scheduler_db"
	DefaultDBUser        = "admin"
	DefaultDBPassword    = "admin"
	DefaultDBSSLMode     = "disable"
	DefaultSQLitePath    = "cronfire.db"

	DefaultPoolMinSize       = 1
	DefaultPoolMaxSize       = 5
	DefaultConnectRetries    = 5
	DefaultConnectRetryDelay = 2 * time.Second

	DefaultQueueDriver = Redis
	DefaultQueueName   = "task_queue"
	DefaultRedisHost   = "localhost"
	DefaultRedisPort   = 6379

	DefaultSchedulerInterval = 10 * time.Second

	DefaultPopTimeout = 5 * time.Second
	DefaultBackoffMin = 1 * time.Second
	DefaultBackoffMax = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)
