// Package runner ties the checkpoint store, the cloud API client and the
// fetcher together into one "fetch everything new since last time"
// operation, shared by the CLI, the scheduler and the status server.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iAnanich/scrapy-ntk/internal/config"
	"github.com/iAnanich/scrapy-ntk/internal/fetcher"
	"github.com/iAnanich/scrapy-ntk/internal/jobs"
	"github.com/iAnanich/scrapy-ntk/internal/logger"
)

// Checkpoints is the slice of the checkpoint store the runner needs.
type Checkpoints interface {
	SeenJobNumbers(ctx context.Context, projectID, spiderID int) ([]int, error)
	StartRun(ctx context.Context) (uuid.UUID, error)
	FinishRun(ctx context.Context, runID uuid.UUID, jobsFound int, stopReason string) error
	MarkSeen(ctx context.Context, runID uuid.UUID, keys []jobs.JobKey) error
}

// Result summarizes one completed fetch run.
type Result struct {
	RunID      uuid.UUID
	Keys       []jobs.JobKey
	StopReason string
	Duration   time.Duration
}

// Runner executes fetch runs against a fixed set of targets.
type Runner struct {
	logger      logger.Interface
	client      fetcher.Client
	checkpoints Checkpoints
	fetchCfg    config.FetchConfig
}

// New creates a runner.
func New(log logger.Interface, client fetcher.Client, checkpoints Checkpoints, fetchCfg config.FetchConfig) *Runner {
	return &Runner{
		logger:      log.WithComponent("runner"),
		client:      client,
		checkpoints: checkpoints,
		fetchCfg:    fetchCfg,
	}
}

// RunOnce performs one fetch run: load the per-target exclude lists from
// the checkpoint store, scan the listings for unseen jobs, record the new
// job numbers and close the run. The returned keys are newest first per
// target.
func (r *Runner) RunOnce(ctx context.Context) (*Result, error) {
	started := time.Now()

	runID, err := r.checkpoints.StartRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	log := r.logger.WithRun(runID.String())
	log.Info("Fetch run started", "targets", len(r.fetchCfg.Targets))

	targets := make([]fetcher.Target, 0, len(r.fetchCfg.Targets))
	for _, t := range r.fetchCfg.Targets {
		seen, seenErr := r.checkpoints.SeenJobNumbers(ctx, t.ProjectID, t.SpiderID)
		if seenErr != nil {
			return nil, fmt.Errorf("failed to load checkpoint for %d/%d: %w",
				t.ProjectID, t.SpiderID, seenErr)
		}
		targets = append(targets, fetcher.Target{
			ProjectID: t.ProjectID,
			SpiderID:  t.SpiderID,
			Exclude:   seen,
		})
	}

	var stopReason string
	f, err := fetcher.New(log, r.client, fetcher.Limits{
		MaxFetchedJobs:    r.fetchCfg.MaxFetchedJobs,
		MaxExcludeMatches: r.fetchCfg.MaxExcludeMatches,
		MaxTotalExcluded:  r.fetchCfg.MaxTotalExcluded,
		MaxReturnedJobs:   r.fetchCfg.MaxReturnedJobs,
	}, targets, fetcher.WithFinishObserver(func(_ fetcher.Target, reason string) {
		stopReason = reason
	}))
	if err != nil {
		return nil, err
	}

	var keys []jobs.JobKey
	for key, fetchErr := range f.FetchJobKeys(ctx) {
		if fetchErr != nil {
			// Record what was found before the failure so the next run
			// does not refetch it.
			if markErr := r.checkpoints.MarkSeen(ctx, runID, keys); markErr != nil {
				log.Error("Failed to checkpoint partial run", "error", markErr)
			}
			return nil, fmt.Errorf("fetch failed: %w", fetchErr)
		}
		keys = append(keys, key)
	}

	if err := r.checkpoints.MarkSeen(ctx, runID, keys); err != nil {
		return nil, fmt.Errorf("failed to checkpoint run: %w", err)
	}
	if err := r.checkpoints.FinishRun(ctx, runID, len(keys), stopReason); err != nil {
		return nil, fmt.Errorf("failed to finish run: %w", err)
	}

	result := &Result{
		RunID:      runID,
		Keys:       keys,
		StopReason: stopReason,
		Duration:   time.Since(started),
	}
	log.Info("Fetch run finished",
		"jobs_found", len(result.Keys),
		"stop_reason", result.StopReason,
		"duration", result.Duration,
	)
	return result, nil
}
