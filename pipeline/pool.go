package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// runPool fans one step out across a bounded worker pool, one task per
// item. Results are written by index, so the returned slice is positionally
// aligned with the input no matter which worker finishes first. Stage
// failures are already trapped inside invoke; an error here is an
// infrastructure failure (context cancellation) and fails the whole call.
func runPool(ctx context.Context, pctx *Context, step *Step, items []any, workers int) ([]*StepResult, error) {
	results := make([]*StepResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = invoke(gctx, pctx, step, item, int64(i))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline: parallel %s: %w", step.Name(), err)
	}
	return results, nil
}
