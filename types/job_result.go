package types

import (
	"time"
)

// Outcome classifies what happened to a single dequeued envelope.
type Outcome string

const (
	OutcomeSucceeded   Outcome = "succeeded"
	OutcomeFailed      Outcome = "failed"
	OutcomeMalformed   Outcome = "malformed"
	OutcomeUnknownTask Outcome = "unknown_task"
)

func (o Outcome) String() string {
	return string(o)
}

// TaskResult is the structured value a task returns. It is logged, never persisted.
type TaskResult map[string]any

// JobResult describes one processed envelope.
type JobResult struct {
	TaskName string
	Outcome  Outcome
	Result   TaskResult
	Err      error
	Duration time.Duration
}
