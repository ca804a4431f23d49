package types

import (
	"encoding/json"
	"time"
)

// Job is a recurring job row. Payload holds the envelope template
// ({task_name, args, kwargs}) pushed on every firing.
type Job struct {
	ID           int64
	Name         string
	CronSchedule string
	Payload      json.RawMessage
	LastRunAt    *time.Time
	NextRunAt    time.Time
	IsActive     bool
	CreatedAt    time.Time
}

// IsDue reports whether the job should fire at now.
func (j Job) IsDue(now time.Time) bool {
	return j.IsActive && !j.NextRunAt.After(now)
}
