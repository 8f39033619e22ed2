package pipeline

import (
	"context"
	"time"

	"github.com/scenariotools/pipekit/logger"
	"github.com/scenariotools/pipekit/observability"
)

// WithTracing wraps a step with OpenTelemetry span creation. Each
// invocation creates a span named "{prefix}.{stepName}". The wrapped step
// keeps its name and identity, so results still group correctly.
func WithTracing(step *Step, prefix string) *Step {
	inner := step.fn
	return step.wrap(func(ctx context.Context, pctx *Context, item any) (any, error) {
		ctx, span := observability.StartSpan(ctx, prefix+"."+step.Name())
		defer span.End()

		observability.SetSpanAttribute(ctx, "pipeline.step", step.Name())

		out, err := inner(ctx, pctx, item)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		return out, err
	})
}

// WithMetrics wraps a step with metric recording: invocation count,
// duration, and errors.
func WithMetrics(step *Step, metrics *observability.Metrics) *Step {
	inner := step.fn
	return step.wrap(func(ctx context.Context, pctx *Context, item any) (any, error) {
		start := time.Now()
		out, err := inner(ctx, pctx, item)
		duration := time.Since(start)

		status := "ok"
		if err != nil {
			status = "error"
			metrics.RecordError(ctx, "invoke", step.Name())
		}
		metrics.RecordStep(ctx, step.Name(), status, duration)

		return out, err
	})
}

// WithLogging wraps a step with per-invocation logging of name, duration
// and outcome. Note that the log entries go to the given logger, not into
// the invocation's capture buffer.
func WithLogging(step *Step, log *logger.Logger) *Step {
	inner := step.fn
	return step.wrap(func(ctx context.Context, pctx *Context, item any) (any, error) {
		start := time.Now()
		out, err := inner(ctx, pctx, item)
		duration := time.Since(start)

		fields := logger.Fields(
			logger.FieldStep, step.Name(),
			logger.FieldDuration, duration.Milliseconds(),
		)
		if err != nil {
			fields[logger.FieldError] = err.Error()
			log.Error("step invocation failed", fields)
		} else {
			log.Debug("step invocation completed", fields)
		}
		return out, err
	})
}
