package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string // Redis client address (e.g., "localhost:6379")
	Password string // Password for Redis authentication (optional)
	DB       int    // Redis database number to use (e.g., 0 by default)
}

// RedisQueue stores envelopes in a Redis list: RPUSH to enqueue, BLPOP to dequeue.
type RedisQueue struct {
	client *redis.Client
	name   string
}

func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{client: client, name: name}
}

// DialRedis connects and verifies the connection with PING.
func DialRedis(ctx context.Context, opts RedisOptions, name string) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return NewRedisQueue(client, name), nil
}

func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	if err := q.client.RPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", q.name, err)
	}
	return nil
}

// Pop uses BLPOP, which has one-second resolution; shorter timeouts are rounded up.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop from %s: %w", q.name, err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("pop from %s: unexpected reply %v", q.name, res)
	}
	return []byte(res[1]), nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
