// Package iterate implements a lazy stream-filtering engine with multiple
// simultaneous stopping conditions. A Manager pulls elements from a
// single-pass primary sequence, drops structurally uninteresting elements
// through case stages, skips elements already seen in a previous run
// through a merge-style exclusion cursor, and stops under any of four
// independently configured thresholds, recording an auditable close
// reason for why the pass ended.
package iterate

import (
	"fmt"
	"iter"
	"reflect"
)

// Seq is a single-pass lazy sequence of primary elements. Pulling an
// element may fail; a non-nil error ends the pass and is surfaced to the
// consumer.
type Seq = iter.Seq2[any, error]

// KeySeq is a single-pass lazy sequence of exclusion keys.
type KeySeq = iter.Seq[any]

// Close reasons recorded when a threshold ends a pass.
const (
	ReasonExcludeMatches = "Exclude matches threshold reached."
	ReasonTotalExcluded  = "Total excluded threshold reached."
	ReasonReturnedValues = "Returned values threshold reached."
	ReasonIterations     = "Iterations count threshold reached."
)

// Config bundles everything a Manager needs for one iteration pass.
// Only Source is required; every other field has an identity-like default.
type Config struct {
	// Source is the primary sequence. Required, single-pass, borrowed.
	Source Seq

	// Exclude is the sequence of already-seen keys, presented in the same
	// relative order as the keys derived from Source. Optional.
	Exclude KeySeq

	// ExcludeDefault is the sentinel key the cursor reports once Exclude
	// is drained.
	ExcludeDefault any

	// ExcludeCompare optionally declares the scan order shared by Source
	// and Exclude: a negative result means the first argument is scanned
	// before the second. When set, stale exclude keys left behind by
	// case-dropped elements are discarded instead of blocking the cursor.
	ExcludeCompare func(a, b any) int

	// ValueType, ExcludeType and ReturnType optionally declare the types
	// of primary elements, exclusion keys and projected results. Nil
	// disables the corresponding check.
	ValueType   reflect.Type
	ExcludeType reflect.Type
	ReturnType  reflect.Type

	// MaxIterations caps total elements pulled from Source.
	MaxIterations Threshold
	// MaxExcludeMatches caps consecutive exclusion matches.
	MaxExcludeMatches Threshold
	// MaxTotalExcluded caps exclusion matches regardless of streaks.
	MaxTotalExcluded Threshold
	// MaxReturned caps yielded values.
	MaxReturned Threshold

	// ContextBuilder constructs the per-element Context. Default:
	// NewContext(value, value), identity key extraction.
	ContextBuilder Stage
	// CaseStages are filtering predicates run in declared order. Any true
	// result drops the element with no exclusion bookkeeping.
	CaseStages []Stage
	// Projector derives the yielded value from the context. Default: the
	// raw value.
	Projector Stage
	// BeforeFinish runs once with the final context when a threshold ends
	// the pass. Never invoked on caller abandonment.
	BeforeFinish Stage
}

// Manager orchestrates one lazy pass over a primary sequence. Each call
// to Iterate owns fresh counters and a fresh exclusion cursor; the
// produced sequence is not restartable because the underlying sequences
// are single-pass.
type Manager struct {
	cfg            Config
	contextBuilder Stage
	caseStages     []Stage
	projector      Stage
	beforeFinish   Stage
}

// New validates cfg, fills in stage defaults and returns a Manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Source == nil {
		return nil, ErrNilSource
	}
	if err := checkType(cfg.ExcludeDefault, cfg.ExcludeType, "exclude default"); err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:            cfg,
		contextBuilder: cfg.ContextBuilder,
		caseStages:     cfg.CaseStages,
		projector:      cfg.Projector,
		beforeFinish:   cfg.BeforeFinish,
	}
	if !m.contextBuilder.IsSet() {
		m.contextBuilder = ContextStage(func(value any) (*Context, error) {
			return NewContext(value, value), nil
		}, cfg.ValueType)
	}
	if !m.projector.IsSet() {
		m.projector = ProjectStage(func(ctx *Context) (any, error) {
			return ctx.Value(), nil
		}, cfg.ReturnType)
	}
	if !m.beforeFinish.IsSet() {
		m.beforeFinish = FinishStage(func(*Context) error { return nil })
	}
	for _, stage := range m.caseStages {
		if !stage.IsSet() {
			return nil, fmt.Errorf("%w: unset case stage", ErrNilStageFunc)
		}
	}
	return m, nil
}

// Iterate returns the lazy output sequence of projected values. Consuming
// it is the only way to drive the pass forward: there is no buffering or
// read-ahead beyond the cursor's single pending key. Contract violations
// in stages surface as errors and abort the pass. Abandoning the sequence
// early discards counters and cursor state without invoking the
// before-finish hook.
func (m *Manager) Iterate() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		var cursor *ExcludeCursor
		if m.cfg.ExcludeCompare != nil {
			cursor = NewOrderedExcludeCursor(m.cfg.Exclude, m.cfg.ExcludeDefault, m.cfg.ExcludeCompare)
		} else {
			cursor = NewExcludeCursor(m.cfg.Exclude, m.cfg.ExcludeDefault)
		}
		defer cursor.Close()

		iterations := NewCounter(m.cfg.MaxIterations)
		excludeMatches := NewCounter(m.cfg.MaxExcludeMatches)
		totalExcluded := NewCounter(m.cfg.MaxTotalExcluded)
		returned := NewCounter(m.cfg.MaxReturned)

		for value, err := range m.cfg.Source {
			if err != nil {
				yield(nil, err)
				return
			}

			built, err := m.contextBuilder.Call(value)
			if err != nil {
				yield(nil, err)
				return
			}
			ctx, ok := built.(*Context)
			if !ok {
				yield(nil, fmt.Errorf("%w: context builder returned %T, want *iterate.Context",
					ErrTypeMismatch, built))
				return
			}

			dropped, err := m.runCaseStages(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if dropped {
				// Structurally uninteresting element: no exclusion
				// bookkeeping, no counting, straight to the next one.
				continue
			}

			if cursor.Test(ctx.ExcludeKey()) {
				if excludeMatches.Add() {
					mustSetCloseReason(ctx, ReasonExcludeMatches)
				}
				if totalExcluded.Add() {
					mustSetCloseReason(ctx, ReasonTotalExcluded)
				}
			} else {
				excludeMatches.Drop()
				if returned.Add() {
					mustSetCloseReason(ctx, ReasonReturnedValues)
				}
				projected, projectErr := m.projector.Call(ctx)
				if projectErr != nil {
					yield(nil, projectErr)
					return
				}
				if !yield(projected, nil) {
					return
				}
			}

			if iterations.Add() {
				mustSetCloseReason(ctx, ReasonIterations)
			}

			if _, stop := ctx.CloseReason(); stop {
				if _, finishErr := m.beforeFinish.Call(ctx); finishErr != nil {
					yield(nil, finishErr)
				}
				return
			}
		}
	}
}

// runCaseStages reports whether any case stage dropped the element.
func (m *Manager) runCaseStages(ctx *Context) (bool, error) {
	for _, stage := range m.caseStages {
		result, err := stage.Call(ctx)
		if err != nil {
			return false, err
		}
		dropped, ok := result.(bool)
		if !ok {
			return false, fmt.Errorf("%w: case stage returned %T, want bool",
				ErrTypeMismatch, result)
		}
		if dropped {
			return true, nil
		}
	}
	return false, nil
}

// mustSetCloseReason appends a known-valid close reason.
func mustSetCloseReason(ctx *Context, reason string) {
	// Reasons are package constants, never empty.
	_ = ctx.SetCloseReason(reason)
}
