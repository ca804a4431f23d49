package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RezaEskandarii/cronfire/internal/store"
	"github.com/RezaEskandarii/cronfire/types"
	_ "modernc.org/sqlite"
)

// TimeLayout is fixed-width UTC so TEXT columns compare in time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders t for storage in a TEXT column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

type SQLiteJobStore struct {
	db *sql.DB
}

func NewSQLiteJobStore(db *sql.DB) *SQLiteJobStore {
	return &SQLiteJobStore{db: db}
}

func (r *SQLiteJobStore) FetchDueJobs(ctx context.Context, now time.Time) ([]types.Job, error) {
	query := `
		SELECT id, job_name, schedule, payload,
		       last_run_at, next_run_at, is_active, created_at
		FROM jobs
		WHERE is_active = 1 AND next_run_at <= ?
		ORDER BY next_run_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, FormatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		var (
			job       types.Job
			payload   []byte
			lastRunAt sql.NullString
			nextRunAt string
			createdAt string
		)
		if err := rows.Scan(
			&job.ID, &job.Name, &job.CronSchedule, &payload,
			&lastRunAt, &nextRunAt, &job.IsActive, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		job.Payload = json.RawMessage(payload)

		if job.NextRunAt, err = parseTime(nextRunAt); err != nil {
			return nil, fmt.Errorf("job %d: %w", job.ID, err)
		}
		if job.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("job %d: %w", job.ID, err)
		}
		if lastRunAt.Valid {
			t, err := parseTime(lastRunAt.String)
			if err != nil {
				return nil, fmt.Errorf("job %d: %w", job.ID, err)
			}
			job.LastRunAt = &t
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

func (r *SQLiteJobStore) UpdateJobRunTimes(ctx context.Context, jobID int64, lastRunAt, nextRunAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET last_run_at = ?, next_run_at = ? WHERE id = ?`,
		FormatTime(lastRunAt), FormatTime(nextRunAt), jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job %d run times: %w", jobID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update job %d run times: %w", jobID, err)
	}
	if n == 0 {
		return fmt.Errorf("update job %d: %w", jobID, store.ErrJobNotFound)
	}
	return nil
}

func (r *SQLiteJobStore) Close() error {
	return r.db.Close()
}
