package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iAnanich/scrapy-ntk/internal/jobs"
)

// schema creates the checkpoint tables. Idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS fetch_runs (
	id          UUID PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ,
	jobs_found  INTEGER NOT NULL DEFAULT 0,
	stop_reason TEXT
);

CREATE TABLE IF NOT EXISTS seen_jobs (
	project_id INTEGER NOT NULL,
	spider_id  INTEGER NOT NULL,
	job_num    INTEGER NOT NULL,
	run_id     UUID REFERENCES fetch_runs (id),
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (project_id, spider_id, job_num)
);
`

// FetchRun is one recorded invocation of the fetch loop.
type FetchRun struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	JobsFound  int        `db:"jobs_found" json:"jobs_found"`
	StopReason *string    `db:"stop_reason" json:"stop_reason,omitempty"`
}

// CheckpointRepository handles database operations for the checkpoint
// store.
type CheckpointRepository struct {
	db *sqlx.DB
}

// NewCheckpointRepository creates a new checkpoint repository.
func NewCheckpointRepository(db *sqlx.DB) *CheckpointRepository {
	return &CheckpointRepository{db: db}
}

// EnsureSchema creates the checkpoint tables if they do not exist.
func (r *CheckpointRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure checkpoint schema: %w", err)
	}
	return nil
}

// SeenJobNumbers returns the already-fetched job numbers of one spider,
// descending, the order the exclude sequence needs to match the
// newest-first listing.
func (r *CheckpointRepository) SeenJobNumbers(ctx context.Context, projectID, spiderID int) ([]int, error) {
	var nums []int
	query := `
		SELECT job_num
		FROM seen_jobs
		WHERE project_id = $1 AND spider_id = $2
		ORDER BY job_num DESC
	`

	if err := r.db.SelectContext(ctx, &nums, query, projectID, spiderID); err != nil {
		return nil, fmt.Errorf("failed to load seen job numbers: %w", err)
	}
	return nums, nil
}

// StartRun records the beginning of a fetch run and returns its ID.
func (r *CheckpointRepository) StartRun(ctx context.Context) (uuid.UUID, error) {
	runID := uuid.New()
	query := `INSERT INTO fetch_runs (id) VALUES ($1)`

	if _, err := r.db.ExecContext(ctx, query, runID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to start fetch run: %w", err)
	}
	return runID, nil
}

// FinishRun closes a fetch run with its result counters.
func (r *CheckpointRepository) FinishRun(ctx context.Context, runID uuid.UUID, jobsFound int, stopReason string) error {
	query := `
		UPDATE fetch_runs
		SET finished_at = now(), jobs_found = $1, stop_reason = NULLIF($2, '')
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, jobsFound, stopReason, runID)
	if err != nil {
		return fmt.Errorf("failed to finish fetch run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check fetch run update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("fetch run not found: %s", runID)
	}
	return nil
}

// MarkSeen records freshly fetched job keys against a run. Keys already
// present are left untouched, so re-running after a partial failure
// cannot double-record.
func (r *CheckpointRepository) MarkSeen(ctx context.Context, runID uuid.UUID, keys []jobs.JobKey) error {
	if len(keys) == 0 {
		return nil
	}

	query := `
		INSERT INTO seen_jobs (project_id, spider_id, job_num, run_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, spider_id, job_num) DO NOTHING
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, key := range keys {
		if _, execErr := tx.ExecContext(ctx, query,
			key.ProjectID(), key.SpiderID(), key.JobNum(), runID); execErr != nil {
			return fmt.Errorf("failed to mark job %s as seen: %w", key, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit seen jobs: %w", commitErr)
	}
	return nil
}

// GetRun retrieves one fetch run by ID.
func (r *CheckpointRepository) GetRun(ctx context.Context, runID uuid.UUID) (*FetchRun, error) {
	var run FetchRun
	query := `
		SELECT id, started_at, finished_at, jobs_found, stop_reason
		FROM fetch_runs
		WHERE id = $1
	`

	if err := r.db.GetContext(ctx, &run, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fetch run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get fetch run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves the most recent fetch runs.
func (r *CheckpointRepository) ListRuns(ctx context.Context, limit int) ([]*FetchRun, error) {
	var runs []*FetchRun
	query := `
		SELECT id, started_at, finished_at, jobs_found, stop_reason
		FROM fetch_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list fetch runs: %w", err)
	}
	if runs == nil {
		runs = []*FetchRun{}
	}
	return runs, nil
}
