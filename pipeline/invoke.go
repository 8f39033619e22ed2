package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

type outputKey struct{}

type randKey struct{}

// Output returns the diagnostic sink of the current invocation. Text
// written to it is captured into the StepResult of the running stage.
// Outside an invocation it returns io.Discard.
func Output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}
	return io.Discard
}

// Rand returns the deterministic per-item generator of the current
// invocation, derived from the context seed and the item's position.
// Outside an invocation it returns a generator with a fixed seed.
func Rand(ctx context.Context) *rand.Rand {
	if r, ok := ctx.Value(randKey{}).(*rand.Rand); ok {
		return r
	}
	return rand.New(rand.NewSource(1))
}

// withCapture scopes the invocation's diagnostics to buf: both the raw
// writer accessor and zerolog.Ctx(ctx) end up writing there, so nothing
// leaks to the process streams and concurrent invocations never share a
// sink.
func withCapture(ctx context.Context, buf *bytes.Buffer) context.Context {
	ctx = context.WithValue(ctx, outputKey{}, io.Writer(buf))
	capture := zerolog.New(buf)
	return capture.WithContext(ctx)
}

// invoke executes one stage on one item: capture, failure boundary, timing.
// A failure (returned error or panic) is trapped into the result and never
// propagates. stream is the item's position, used to derive its
// deterministic generator.
func invoke(ctx context.Context, pctx *Context, step *Step, input any, stream int64) *StepResult {
	var buf bytes.Buffer
	ictx := withCapture(ctx, &buf)
	ictx = context.WithValue(ictx, randKey{}, pctx.Rand(stream))

	start := time.Now()
	output, err := step.runGuarded(ictx, pctx, input)
	elapsed := time.Since(start)

	result := &StepResult{
		Step:     step.Name(),
		Input:    input,
		Duration: elapsed,
		Log:      buf.String(),
	}
	if err != nil {
		result.Error = err.Error()
	} else {
		result.Output = normalizeNil(output)
	}
	return result
}

// runGuarded calls the step function with a panic boundary. A panic is
// converted into an error carrying the stack trace.
func (s *Step) runGuarded(ctx context.Context, pctx *Context, item any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return s.fn(ctx, pctx, item)
}
