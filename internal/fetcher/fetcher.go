// Package fetcher pulls "new" finished jobs from the cloud job API:
// jobs that are not in the caller-supplied set of already-seen job
// numbers, scanning the listing newest-first and stopping early under
// configurable thresholds.
package fetcher

import (
	"context"
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/iAnanich/scrapy-ntk/internal/iterate"
	"github.com/iAnanich/scrapy-ntk/internal/jobs"
	"github.com/iAnanich/scrapy-ntk/internal/logger"
)

// Context field keys carried per job summary.
const (
	fieldJobKey         = "job_key"
	fieldJobNum         = "job_num"
	fieldJobCloseReason = "job_close_reason"
	fieldJobItems       = "job_items"
)

// Client is the slice of the cloud job API the fetcher consumes.
type Client interface {
	IterJobSummaries(ctx context.Context, projectID, spiderID int) iter.Seq2[jobs.Summary, error]
	GetJob(ctx context.Context, key jobs.JobKey) (map[string]any, error)
	IterItems(ctx context.Context, key jobs.JobKey) iter.Seq2[map[string]any, error]
	IterLogs(ctx context.Context, key jobs.JobKey) iter.Seq2[map[string]any, error]
}

// Target names one spider's listing together with the job numbers already
// seen in previous runs.
type Target struct {
	ProjectID int
	SpiderID  int
	// Exclude holds previously seen job numbers in any order; the fetcher
	// sorts them descending to match the newest-first listing.
	Exclude []int
}

// Limits configures the stop conditions of one listing scan. Zero means
// no limit.
type Limits struct {
	// MaxFetchedJobs caps how many listing records are examined.
	MaxFetchedJobs int
	// MaxExcludeMatches stops the scan once this many consecutive
	// already-seen jobs are hit, the signal that the scan has reached
	// territory processed in a previous run.
	MaxExcludeMatches int
	// MaxTotalExcluded caps skipped jobs regardless of streaks.
	MaxTotalExcluded int
	// MaxReturnedJobs stops once enough new jobs were found.
	MaxReturnedJobs int
}

// thresholds validates the limits.
func (l Limits) thresholds() (maxIter, maxMatches, maxExcluded, maxReturned iterate.Threshold, err error) {
	if maxIter, err = iterate.NewThreshold(l.MaxFetchedJobs); err != nil {
		return
	}
	if maxMatches, err = iterate.NewThreshold(l.MaxExcludeMatches); err != nil {
		return
	}
	if maxExcluded, err = iterate.NewThreshold(l.MaxTotalExcluded); err != nil {
		return
	}
	maxReturned, err = iterate.NewThreshold(l.MaxReturnedJobs)
	return
}

// Fetcher answers "which jobs have finished since the last checkpoint"
// for a set of spider targets. Each target gets its own iteration pass
// with fresh counters; targets are independent of each other.
type Fetcher struct {
	logger   logger.Interface
	client   Client
	limits   Limits
	targets  []Target
	onFinish func(target Target, reason string)
}

// Option is a function that configures a Fetcher.
type Option func(*Fetcher)

// WithFinishObserver registers a callback invoked with the close reason
// whenever a target's scan is stopped by a threshold. Abandoned scans do
// not report.
func WithFinishObserver(fn func(target Target, reason string)) Option {
	return func(f *Fetcher) {
		f.onFinish = fn
	}
}

// New creates a fetcher. The limits are validated up front.
func New(log logger.Interface, client Client, limits Limits, targets []Target, opts ...Option) (*Fetcher, error) {
	if _, _, _, _, err := limits.thresholds(); err != nil {
		return nil, fmt.Errorf("wrong maximum: %w", err)
	}
	f := &Fetcher{
		logger:  log.WithComponent("fetcher"),
		client:  client,
		limits:  limits,
		targets: targets,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

var (
	summaryType = reflect.TypeOf(jobs.Summary{})
	jobNumType  = reflect.TypeOf(0)
	jobKeyType  = reflect.TypeOf(jobs.JobKey{})
)

// descendingInts is the scan order of the listing: bigger job numbers
// come first.
func descendingInts(a, b any) int {
	return b.(int) - a.(int)
}

// spiderJobKeys builds the iteration pass for one target and yields the
// keys of its unseen jobs.
func (f *Fetcher) spiderJobKeys(ctx context.Context, target Target) iter.Seq2[jobs.JobKey, error] {
	return func(yield func(jobs.JobKey, error) bool) {
		log := f.logger.WithProject(target.ProjectID).WithSpider(target.SpiderID)

		maxIter, maxMatches, maxExcluded, maxReturned, err := f.limits.thresholds()
		if err != nil {
			yield(jobs.JobKey{}, fmt.Errorf("wrong maximum: %w", err))
			return
		}

		exclude := slices.Clone(target.Exclude)
		slices.Sort(exclude)
		slices.Reverse(exclude)

		manager, err := iterate.New(iterate.Config{
			Source:            f.summarySource(ctx, target),
			Exclude:           excludeSeq(exclude),
			ExcludeDefault:    0,
			ExcludeCompare:    descendingInts,
			ValueType:         summaryType,
			ExcludeType:       jobNumType,
			ReturnType:        jobKeyType,
			MaxIterations:     maxIter,
			MaxExcludeMatches: maxMatches,
			MaxTotalExcluded:  maxExcluded,
			MaxReturned:       maxReturned,
			ContextBuilder:    iterate.ContextStage(buildJobContext, summaryType),
			CaseStages: []iterate.Stage{
				f.unsuccessfulJob(log),
				f.emptyJob(log),
			},
			Projector: iterate.ProjectStage(projectJobKey, jobKeyType),
			BeforeFinish: iterate.FinishStage(func(c *iterate.Context) error {
				reason, _ := c.CloseReason()
				num, _ := c.Get(fieldJobNum)
				log.Info("Finished scanning listing",
					"job_num", num,
					"reason", reason,
				)
				if f.onFinish != nil {
					f.onFinish(target, reason)
				}
				return nil
			}),
		})
		if err != nil {
			yield(jobs.JobKey{}, err)
			return
		}

		log.Info("Ready to fetch jobs")
		for value, iterErr := range manager.Iterate() {
			if iterErr != nil {
				yield(jobs.JobKey{}, iterErr)
				return
			}
			if !yield(value.(jobs.JobKey), nil) {
				return
			}
		}
	}
}

// summarySource adapts the client's typed listing to the engine's
// untyped primary sequence.
func (f *Fetcher) summarySource(ctx context.Context, target Target) iterate.Seq {
	return func(yield func(any, error) bool) {
		for summary, err := range f.client.IterJobSummaries(ctx, target.ProjectID, target.SpiderID) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(summary, nil) {
				return
			}
		}
	}
}

// excludeSeq turns sorted job numbers into the engine's key sequence.
func excludeSeq(nums []int) iterate.KeySeq {
	return func(yield func(any) bool) {
		for _, n := range nums {
			if !yield(n) {
				return
			}
		}
	}
}

// buildJobContext derives the exclusion key (the job sequence number) and
// carries the summary fields the case stages and projector need.
func buildJobContext(value any) (*iterate.Context, error) {
	summary := value.(jobs.Summary)
	key, err := summary.JobKey()
	if err != nil {
		return nil, err
	}
	c := iterate.NewContext(summary, key.JobNum())
	if err := c.Update(map[string]any{
		fieldJobKey:         key,
		fieldJobNum:         key.JobNum(),
		fieldJobCloseReason: summary.CloseReason,
		fieldJobItems:       summary.Items,
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// projectJobKey yields the parsed job key instead of the raw summary.
func projectJobKey(c *iterate.Context) (any, error) {
	key, _ := c.Get(fieldJobKey)
	return key, nil
}

// unsuccessfulJob drops jobs whose close reason indicates a failure.
// Operational conditions are data, not errors: the record is logged and
// skipped without touching the exclusion bookkeeping.
func (f *Fetcher) unsuccessfulJob(log logger.Interface) iterate.Stage {
	return iterate.CaseStage(func(c *iterate.Context) (bool, error) {
		reason, _ := c.Get(fieldJobCloseReason)
		if reason != jobs.CloseReasonFinished {
			key, _ := c.Get(fieldJobKey)
			log.Error("Job finished unsuccessfully",
				"job_key", fmt.Sprint(key),
				"close_reason", reason,
			)
			return true, nil
		}
		return false, nil
	})
}

// emptyJob drops jobs that produced no items.
func (f *Fetcher) emptyJob(log logger.Interface) iterate.Stage {
	return iterate.CaseStage(func(c *iterate.Context) (bool, error) {
		items, _ := c.Get(fieldJobItems)
		if items.(int) < 1 {
			key, _ := c.Get(fieldJobKey)
			log.Info("Job has no items", "job_key", fmt.Sprint(key))
			return true, nil
		}
		return false, nil
	})
}

// FetchJobKeys yields the keys of unseen jobs across all targets, newest
// first within each target.
func (f *Fetcher) FetchJobKeys(ctx context.Context) iter.Seq2[jobs.JobKey, error] {
	return func(yield func(jobs.JobKey, error) bool) {
		for _, target := range f.targets {
			for key, err := range f.spiderJobKeys(ctx, target) {
				if !yield(key, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}
}

// FetchJobs yields the full metadata of every unseen job.
func (f *Fetcher) FetchJobs(ctx context.Context) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for key, err := range f.FetchJobKeys(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			job, getErr := f.client.GetJob(ctx, key)
			if !yield(job, getErr) {
				return
			}
			if getErr != nil {
				return
			}
		}
	}
}

// FetchItems yields the scraped items of every unseen job.
func (f *Fetcher) FetchItems(ctx context.Context) iter.Seq2[map[string]any, error] {
	return f.fetchRecords(ctx, f.client.IterItems)
}

// FetchLogs yields the log entries of every unseen job.
func (f *Fetcher) FetchLogs(ctx context.Context) iter.Seq2[map[string]any, error] {
	return f.fetchRecords(ctx, f.client.IterLogs)
}

func (f *Fetcher) fetchRecords(
	ctx context.Context,
	records func(context.Context, jobs.JobKey) iter.Seq2[map[string]any, error],
) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for key, err := range f.FetchJobKeys(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			for record, recErr := range records(ctx, key) {
				if !yield(record, recErr) {
					return
				}
				if recErr != nil {
					return
				}
			}
		}
	}
}
