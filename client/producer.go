package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/RezaEskandarii/cronfire/internal/queue"
	"github.com/RezaEskandarii/cronfire/types"
	"github.com/rs/zerolog"
)

var (
	// ErrKwargsNotObject is returned when task arguments are valid JSON but not an object.
	ErrKwargsNotObject = errors.New("task arguments must be a JSON object")
	ErrInvalidJSON     = errors.New("task arguments are not valid JSON")
	ErrEmptyTaskName   = errors.New("task name is required")
)

// Producer pushes ad-hoc envelopes onto the work queue.
type Producer struct {
	queue queue.Queue
	log   zerolog.Logger
}

func NewProducer(q queue.Queue, log zerolog.Logger) *Producer {
	return &Producer{queue: q, log: log}
}

// Enqueue pushes {task_name, args: [], kwargs} and returns the pushed payload.
// The task name is not checked against any registry.
func (p *Producer) Enqueue(ctx context.Context, taskName string, kwargs map[string]any) ([]byte, error) {
	if strings.TrimSpace(taskName) == "" {
		return nil, ErrEmptyTaskName
	}

	payload, err := types.NewEnvelope(taskName, nil, kwargs).Encode()
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	if err := p.queue.Push(ctx, payload); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", taskName, err)
	}

	p.log.Debug().Str("task", taskName).RawJSON("payload", payload).Msg("task enqueued")
	return payload, nil
}

// ParseKwargs decodes text as a JSON object. Blank text yields an empty object.
func ParseKwargs(text string) (map[string]any, error) {
	if strings.TrimSpace(text) == "" {
		return map[string]any{}, nil
	}

	v, err := types.DecodeJSON([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	kwargs, ok := v.(map[string]any)
	if !ok {
		return nil, ErrKwargsNotObject
	}
	return kwargs, nil
}

// ReadKwargsFile reads and parses a JSON object from path.
func ReadKwargsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseKwargs(string(data))
}
