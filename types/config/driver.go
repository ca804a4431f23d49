package config

import (
	"fmt"
	"strings"
)

type StorageDriver int

const (
	Postgres StorageDriver = iota + 1
	SQLite
)

// String converts the StorageDriver enum to a human-readable string.
func (d StorageDriver) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	}
	return "unknown"
}

// SQLDriverName is the name the driver registers with database/sql.
func (d StorageDriver) SQLDriverName() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	}
	return ""
}

func (d *StorageDriver) UnmarshalText(text []byte) error {
	v, err := ParseStorageDriver(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseStorageDriver(s string) (StorageDriver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return 0, fmt.Errorf("unknown storage driver %q", s)
}

type QueueDriver int

const (
	Redis QueueDriver = iota + 1
	RabbitMQ
)

func (d QueueDriver) String() string {
	switch d {
	case Redis:
		return "redis"
	case RabbitMQ:
		return "rabbitmq"
	default:
		return "unknown"
	}
}

func (d *QueueDriver) UnmarshalText(text []byte) error {
	v, err := ParseQueueDriver(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseQueueDriver(s string) (QueueDriver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "redis":
		return Redis, nil
	case "rabbitmq", "amqp":
		return RabbitMQ, nil
	}
	return 0, fmt.Errorf("unknown queue driver %q", s)
}
