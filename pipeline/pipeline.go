package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/scenariotools/pipekit/logger"
)

// ErrNotPopulated is returned when map, filter, reduce or drain is called
// before a successful Populate.
var ErrNotPopulated = errors.New("pipeline is not populated")

// ErrNoValue is returned when a populate function succeeds but yields no
// collection at all. An empty collection is not an error.
var ErrNoValue = errors.New("did not produce a value")

// PopulateFunc seeds the pipeline's collection. It is called exactly once
// and is not fault-isolated. Returning a nil Collection fails the pipeline
// with ErrNoValue; returning an empty one is a legitimate empty run.
type PopulateFunc func(ctx context.Context, pctx *Context) (*Collection, error)

// ReduceFunc aggregates the whole current collection into a new one.
// Not fault-isolated: an error aborts the pipeline call.
type ReduceFunc func(ctx context.Context, pctx *Context, items []any) ([]any, error)

// DrainFunc consumes the materialized collection and returns a value to the
// caller without replacing the pipeline state.
type DrainFunc func(ctx context.Context, pctx *Context, items []any) (any, error)

// Pipeline applies map and reduce steps to a lazy current collection,
// accumulating a StepResult per map/filter invocation across its lifetime.
// A Pipeline is driven from a single goroutine; concurrency only exists
// inside the span of one parallel Map call.
type Pipeline struct {
	pctx *Context
	log  *logger.Logger

	coll      *Collection
	cached    []any
	results   []*StepResult
	populated bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for populate diagnostics and ReportResults.
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// New creates a Pipeline bound to the given run context.
func New(pctx *Context, opts ...Option) *Pipeline {
	p := &Pipeline{pctx: pctx}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.NewDefault("pipekit").WithComponent("pipeline")
	}
	return p
}

func opOnEmpty(op string) error {
	return fmt.Errorf("pipeline: cannot perform %s: %w", op, ErrNotPopulated)
}

// Populate seeds the current collection by calling fn exactly once.
// Diagnostics emitted by fn are captured and forwarded to the pipeline's
// logger before any failure is surfaced.
func (p *Pipeline) Populate(ctx context.Context, fn PopulateFunc) error {
	name := functionName(fn)

	var buf bytes.Buffer
	ictx := withCapture(ctx, &buf)

	coll, err := fn(ictx, p.pctx)
	p.echoCaptured(name, &buf)
	if err != nil {
		return fmt.Errorf("pipeline: populate %s: %w", name, err)
	}
	if coll == nil {
		return fmt.Errorf("pipeline: populate function %q %w", name, ErrNoValue)
	}

	p.coll = coll
	p.cached = nil
	p.populated = true
	return nil
}

type mapOptions struct {
	workers int
	flatten bool
}

// MapOption configures a single Map or Filter call.
type MapOption func(*mapOptions)

// Parallel distributes the call across a bounded pool of n workers.
// Input order is preserved in the new collection and in the result log.
func Parallel(n int) MapOption {
	return func(o *mapOptions) { o.workers = n }
}

// Flatten splices slice outputs into the new collection element-wise
// instead of propagating them as single items.
func Flatten() MapOption {
	return func(o *mapOptions) { o.flatten = true }
}

// Map applies step to every element of the current collection. Every
// invocation, success or failure, is appended to the result log; only
// present outputs propagate, in input order. A sequential call stays lazy
// until the next state-changing call or accessor forces it, so laziness is
// scoped to one stage at a time: entries from an earlier call always
// precede entries from a later one in the log. With Parallel(n) the
// collection is fanned out across the worker pool.
func (p *Pipeline) Map(ctx context.Context, step *Step, opts ...MapOption) error {
	if !p.populated {
		return opOnEmpty("map")
	}
	var o mapOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Run any still-pending prior stage to completion before this one
	// appends its first result.
	items := p.materialize()

	if o.workers > 1 {
		results, err := runPool(ctx, p.pctx, step, items, o.workers)
		if err != nil {
			return err
		}
		p.results = append(p.results, results...)
		outputs := make([]any, 0, len(results))
		for _, r := range results {
			if r.Produced() {
				outputs = append(outputs, expand(r.Output, o.flatten)...)
			}
		}
		p.coll = FromSlice(outputs)
		p.cached = nil
		return nil
	}

	source := p.coll
	var pending []any
	var stream int64
	p.coll = FromFunc(func() (any, bool) {
		for {
			if len(pending) > 0 {
				val := pending[0]
				pending = pending[1:]
				return val, true
			}
			item, ok := source.Next()
			if !ok {
				return nil, false
			}
			result := invoke(ctx, p.pctx, step, item, stream)
			stream++
			p.results = append(p.results, result)
			if !result.Produced() {
				continue
			}
			pending = expand(result.Output, o.flatten)
		}
	})
	p.cached = nil
	return nil
}

// Filter applies a predicate step to every element and keeps the inputs
// for which it returned true. Like Map it is fault-isolated, logged and
// lazy within its own call; a failing item is dropped and recorded.
func (p *Pipeline) Filter(ctx context.Context, step *Step) error {
	if !p.populated {
		return opOnEmpty("filter")
	}

	p.materialize()
	source := p.coll
	var stream int64
	p.coll = FromFunc(func() (any, bool) {
		for {
			item, ok := source.Next()
			if !ok {
				return nil, false
			}
			result := invoke(ctx, p.pctx, step, item, stream)
			stream++
			p.results = append(p.results, result)
			if keep, _ := result.Output.(bool); keep {
				return item, true
			}
		}
	})
	p.cached = nil
	return nil
}

// Reduce calls fn once on the materialized current collection and replaces
// the collection with its result. Reduce is not fault-isolated and not
// logged as a StepResult: a failure halts the pipeline run.
func (p *Pipeline) Reduce(ctx context.Context, fn ReduceFunc) error {
	if !p.populated {
		return opOnEmpty("reduce")
	}

	items := p.materialize()
	out, err := fn(ctx, p.pctx, items)
	if err != nil {
		return fmt.Errorf("pipeline: reduce %s: %w", functionName(fn), err)
	}
	p.coll = FromSlice(out)
	p.cached = nil
	return nil
}

// Drain materializes the current collection and hands it to fn, returning
// fn's value to the caller. The pipeline state is left as the materialized
// collection.
func (p *Pipeline) Drain(ctx context.Context, fn DrainFunc) (any, error) {
	if !p.populated {
		return nil, opOnEmpty("drain")
	}
	items := p.materialize()
	out, err := fn(ctx, p.pctx, items)
	if err != nil {
		return nil, fmt.Errorf("pipeline: drain %s: %w", functionName(fn), err)
	}
	return out, nil
}

// Results forces all pending lazy work and returns the cumulative result
// log, in append order across all map and filter calls. The materialized
// form is memoized: repeated calls re-run nothing.
func (p *Pipeline) Results() []*StepResult {
	p.materialize()
	return p.results
}

// Errors returns the entries of Results that recorded a failure.
func (p *Pipeline) Errors() []*StepResult {
	failed := make([]*StepResult, 0)
	for _, r := range p.Results() {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// State materializes the current collection into a concrete ordered slice,
// memoizing it for subsequent accesses.
func (p *Pipeline) State() []any {
	return p.materialize()
}

// Size returns the number of items currently in the collection, forcing
// materialization.
func (p *Pipeline) Size() int {
	return len(p.materialize())
}

// ReportResults logs every failed step result (stage, offending input,
// captured diagnostics, failure description) followed by the cumulative
// execution time per step.
func (p *Pipeline) ReportResults() {
	order := make([]string, 0)
	totals := make(map[string]time.Duration)

	for _, result := range p.Results() {
		if _, seen := totals[result.Step]; !seen {
			order = append(order, result.Step)
		}
		totals[result.Step] += result.Duration

		if !result.Failed() {
			continue
		}
		fields := logger.Fields(
			logger.FieldStep, result.Step,
			logger.FieldInput, fmt.Sprintf("%v", result.Input),
			logger.FieldError, result.Error,
		)
		if captured := strings.TrimSpace(result.Log); captured != "" {
			fields[logger.FieldCaptured] = captured
		}
		p.log.Error("step failed", fields)
	}

	for _, step := range order {
		p.log.Info("step timing", logger.Fields(
			logger.FieldStep, step,
			logger.FieldDuration, totals[step].Milliseconds(),
		))
	}
}

// materialize forces the current collection and caches the result until the
// next state-changing call.
func (p *Pipeline) materialize() []any {
	if p.cached == nil {
		if p.coll == nil {
			p.coll = FromSlice([]any{})
		}
		items := p.coll.Materialize()
		p.cached = items
		p.coll = FromSlice(items)
	}
	return p.cached
}

// echoCaptured forwards diagnostics captured outside the per-item boundary
// to the pipeline's logger.
func (p *Pipeline) echoCaptured(step string, buf *bytes.Buffer) {
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return
	}
	p.log.Info("captured output", logger.Fields(
		logger.FieldStep, step,
		logger.FieldCaptured, text,
	))
}

// expand returns the values propagating from one produced output.
func expand(out any, flatten bool) []any {
	if !flatten {
		return []any{out}
	}
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Slice {
		return []any{out}
	}
	vals := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		vals = append(vals, v.Index(i).Interface())
	}
	return vals
}
