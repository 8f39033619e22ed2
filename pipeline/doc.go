// Package pipeline provides a composable map/reduce runner for batch
// scenario processing.
//
// A Pipeline holds a lazy current collection of items and an append-only
// log of step results. It is populated once from a source, then any number
// of map, filter and reduce stages are chained on top:
//
//	pctx := pipeline.NewContext(outDir, 42)
//	p := pipeline.New(pctx)
//	if err := p.Populate(ctx, loadCities); err != nil { ... }
//	_ = p.Map(ctx, pipeline.BindStep(args, computeBox), pipeline.Parallel(8))
//	_ = p.Reduce(ctx, writeSummary)
//	p.ReportResults()
//
// Map and filter stages are fault-isolated per item: a failing item is
// recorded in the result log and dropped from the collection, and the rest
// of the batch keeps going. Reduce runs once on the whole collection and is
// not isolated: its failure aborts the run.
//
// Each stage invocation gets its own diagnostic sink. Inside a stage,
// zerolog.Ctx(ctx) and pipeline.Output(ctx) both write to a buffer that
// ends up in the step's result, so concurrent invocations never interleave.
package pipeline
