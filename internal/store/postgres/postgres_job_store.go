package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RezaEskandarii/cronfire/internal/store"
	"github.com/RezaEskandarii/cronfire/types"
)

type PostgresJobStore struct {
	db *sql.DB
}

func NewPostgresJobStore(db *sql.DB) *PostgresJobStore {
	return &PostgresJobStore{db: db}
}

func (r *PostgresJobStore) FetchDueJobs(ctx context.Context, now time.Time) ([]types.Job, error) {
	query := `
		SELECT id, job_name, schedule, payload,
		       last_run_at, next_run_at, is_active, created_at
		FROM jobs
		WHERE is_active = TRUE AND next_run_at <= $1
		ORDER BY next_run_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		var job types.Job
		var payload []byte
		err := rows.Scan(
			&job.ID, &job.Name, &job.CronSchedule, &payload,
			&job.LastRunAt, &job.NextRunAt, &job.IsActive, &job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		job.Payload = json.RawMessage(payload)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, nil
}

func (r *PostgresJobStore) UpdateJobRunTimes(ctx context.Context, jobID int64, lastRunAt, nextRunAt time.Time) error {
	query := `
		UPDATE jobs
		SET last_run_at = $1, next_run_at = $2
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, lastRunAt.UTC(), nextRunAt.UTC(), jobID)
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

func (r *PostgresJobStore) Close() error {
	return r.db.Close()
}
