package mocks

import (
	"context"
	"sync"
	"time"
)

// MockQueue is a mock implementation of queue.Queue for testing.
type MockQueue struct {
	PushFunc  func(ctx context.Context, payload []byte) error
	PopFunc   func(ctx context.Context, timeout time.Duration) ([]byte, error)
	CloseFunc func() error

	mu     sync.Mutex
	Pushed [][]byte
	Closed int
}

func (m *MockQueue) Push(ctx context.Context, payload []byte) error {
	if m.PushFunc != nil {
		if err := m.PushFunc(ctx, payload); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Pushed = append(m.Pushed, append([]byte(nil), payload...))
	m.mu.Unlock()
	return nil
}

func (m *MockQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	if m.PopFunc != nil {
		return m.PopFunc(ctx, timeout)
	}
	return nil, nil
}

func (m *MockQueue) Close() error {
	m.mu.Lock()
	m.Closed++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Messages returns a copy of every successfully pushed payload.
func (m *MockQueue) Messages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.Pushed...)
}

// CloseCount reports how many times Close was called.
func (m *MockQueue) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}
