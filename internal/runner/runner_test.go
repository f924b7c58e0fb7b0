package runner_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iAnanich/scrapy-ntk/internal/config"
	"github.com/iAnanich/scrapy-ntk/internal/jobs"
	"github.com/iAnanich/scrapy-ntk/internal/logger"
	"github.com/iAnanich/scrapy-ntk/internal/runner"
)

// fakeCheckpoints keeps the checkpoint state in memory.
type fakeCheckpoints struct {
	seen       map[string][]int
	marked     []jobs.JobKey
	finished   bool
	jobsFound  int
	stopReason string
}

func (f *fakeCheckpoints) SeenJobNumbers(_ context.Context, projectID, spiderID int) ([]int, error) {
	return f.seen[fmt.Sprintf("%d/%d", projectID, spiderID)], nil
}

func (f *fakeCheckpoints) StartRun(context.Context) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (f *fakeCheckpoints) FinishRun(_ context.Context, _ uuid.UUID, jobsFound int, stopReason string) error {
	f.finished = true
	f.jobsFound = jobsFound
	f.stopReason = stopReason
	return nil
}

func (f *fakeCheckpoints) MarkSeen(_ context.Context, _ uuid.UUID, keys []jobs.JobKey) error {
	f.marked = append(f.marked, keys...)
	return nil
}

// fakeClient serves one canned listing.
type fakeClient struct {
	summaries []jobs.Summary
	listErr   error
}

func (f *fakeClient) IterJobSummaries(context.Context, int, int) iter.Seq2[jobs.Summary, error] {
	return func(yield func(jobs.Summary, error) bool) {
		for _, s := range f.summaries {
			if !yield(s, nil) {
				return
			}
		}
		if f.listErr != nil {
			yield(jobs.Summary{}, f.listErr)
		}
	}
}

func (f *fakeClient) GetJob(context.Context, jobs.JobKey) (map[string]any, error) {
	return nil, nil
}

func (f *fakeClient) IterItems(context.Context, jobs.JobKey) iter.Seq2[map[string]any, error] {
	return func(func(map[string]any, error) bool) {}
}

func (f *fakeClient) IterLogs(context.Context, jobs.JobKey) iter.Seq2[map[string]any, error] {
	return func(func(map[string]any, error) bool) {}
}

func summary(num int) jobs.Summary {
	return jobs.Summary{
		Key:         fmt.Sprintf("1/2/%d", num),
		State:       jobs.StateFinished,
		CloseReason: jobs.CloseReasonFinished,
		Items:       5,
	}
}

func TestRunner_RunOnce(t *testing.T) {
	checkpoints := &fakeCheckpoints{seen: map[string][]int{
		"1/2": {28, 26},
	}}
	client := &fakeClient{summaries: []jobs.Summary{
		summary(30), summary(29), summary(28), summary(27), summary(26),
	}}

	r := runner.New(logger.NewNoOp(), client, checkpoints, config.FetchConfig{
		MaxExcludeMatches: config.DefaultMaxExcludeMatches,
		Targets:           []config.TargetConfig{{ProjectID: 1, SpiderID: 2}},
	})

	result, err := r.RunOnce(context.Background())
	require.NoError(t, err)

	var found []string
	for _, key := range result.Keys {
		found = append(found, key.String())
	}
	require.Equal(t, []string{"1/2/30", "1/2/29", "1/2/27"}, found)

	require.True(t, checkpoints.finished)
	require.Equal(t, 3, checkpoints.jobsFound)
	require.Len(t, checkpoints.marked, 3)
}

func TestRunner_RecordsStopReason(t *testing.T) {
	checkpoints := &fakeCheckpoints{seen: map[string][]int{}}
	client := &fakeClient{summaries: []jobs.Summary{
		summary(5), summary(4), summary(3),
	}}

	r := runner.New(logger.NewNoOp(), client, checkpoints, config.FetchConfig{
		MaxReturnedJobs: 1,
		Targets:         []config.TargetConfig{{ProjectID: 1, SpiderID: 2}},
	})

	result, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Keys, 1)
	require.Equal(t, "Returned values threshold reached.", result.StopReason)
	require.Equal(t, result.StopReason, checkpoints.stopReason)
}

func TestRunner_ChecksPartialOnFailure(t *testing.T) {
	boom := errors.New("api down")
	checkpoints := &fakeCheckpoints{seen: map[string][]int{}}
	client := &fakeClient{
		summaries: []jobs.Summary{summary(9), summary(8)},
		listErr:   boom,
	}

	r := runner.New(logger.NewNoOp(), client, checkpoints, config.FetchConfig{
		Targets: []config.TargetConfig{{ProjectID: 1, SpiderID: 2}},
	})

	_, err := r.RunOnce(context.Background())
	require.ErrorIs(t, err, boom)

	// The jobs found before the failure are still checkpointed; the run
	// itself stays open.
	require.Len(t, checkpoints.marked, 2)
	require.False(t, checkpoints.finished)
}

func TestRunner_NoTargets(t *testing.T) {
	checkpoints := &fakeCheckpoints{}
	r := runner.New(logger.NewNoOp(), &fakeClient{}, checkpoints, config.FetchConfig{})

	result, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Empty(t, result.Keys)
	require.True(t, checkpoints.finished)
}
