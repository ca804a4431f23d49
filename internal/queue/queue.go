package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RezaEskandarii/cronfire/types/config"
)

// ErrClosed is returned by a queue whose underlying connection has gone away.
var ErrClosed = errors.New("queue connection closed")

// Queue is a named FIFO list of raw envelopes shared by producers and workers.
// Pop is a competing-consumer operation: each message is handed to exactly one caller.
type Queue interface {
	// Push appends payload to the tail of the queue.
	Push(ctx context.Context, payload []byte) error

	// Pop blocks up to timeout for the head of the queue. A timeout returns (nil, nil).
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)

	Close() error
}

// Dialer builds a fresh queue connection. Workers call it again after a
// connection-level failure instead of reusing the broken client.
type Dialer func(ctx context.Context) (Queue, error)

// NewDialer returns a Dialer for the configured queue driver.
func NewDialer(cfg config.QueueConfig) (Dialer, error) {
	switch cfg.Driver {
	case config.Redis:
		opts := RedisOptions{Addr: cfg.RedisAddr(), Password: cfg.RedisPassword, DB: cfg.RedisDB}
		return func(ctx context.Context) (Queue, error) {
			return DialRedis(ctx, opts, cfg.Name)
		}, nil
	case config.RabbitMQ:
		return func(ctx context.Context) (Queue, error) {
			return DialRabbitMQ(ctx, cfg.RabbitMQURL, cfg.Name)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported queue driver: %s", cfg.Driver)
	}
}
