package queue

import (
	"context"
	"sync"
	"time"
)

// RedialingQueue wraps a Dialer for long-lived producers. The connection is
// opened on first use and dropped after any error, so the next call dials again.
type RedialingQueue struct {
	dial Dialer

	mu   sync.Mutex
	conn Queue
}

func NewRedialingQueue(dial Dialer) *RedialingQueue {
	return &RedialingQueue{dial: dial}
}

func (r *RedialingQueue) current(ctx context.Context) (Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return r.conn, nil
	}
	conn, err := r.dial(ctx)
	if err != nil {
		return nil, err
	}
	r.conn = conn
	return conn, nil
}

func (r *RedialingQueue) drop(conn Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == conn {
		_ = conn.Close()
		r.conn = nil
	}
}

func (r *RedialingQueue) Push(ctx context.Context, payload []byte) error {
	conn, err := r.current(ctx)
	if err != nil {
		return err
	}
	if err := conn.Push(ctx, payload); err != nil {
		r.drop(conn)
		return err
	}
	return nil
}

func (r *RedialingQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	conn, err := r.current(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := conn.Pop(ctx, timeout)
	if err != nil {
		r.drop(conn)
		return nil, err
	}
	return raw, nil
}

func (r *RedialingQueue) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}
