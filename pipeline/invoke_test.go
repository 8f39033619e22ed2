package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestInvoke_CapturesOutput(t *testing.T) {
	pctx := NewContext(t.TempDir(), 1)
	step := NewStep("chatty", func(ctx context.Context, _ *Context, item any) (any, error) {
		fmt.Fprintf(Output(ctx), "seen %v\n", item)
		zerolog.Ctx(ctx).Info().Msg("structured line")
		return item, nil
	})

	result := invoke(context.Background(), pctx, step, 7, 0)
	if result.Failed() {
		t.Fatalf("unexpected failure: %s", result.Error)
	}
	if !strings.Contains(result.Log, "seen 7") {
		t.Errorf("raw output not captured: %q", result.Log)
	}
	if !strings.Contains(result.Log, "structured line") {
		t.Errorf("structured output not captured: %q", result.Log)
	}
}

func TestInvoke_CaptureIsPerInvocation(t *testing.T) {
	pctx := NewContext(t.TempDir(), 1)
	step := NewStep("echo", func(ctx context.Context, _ *Context, item any) (any, error) {
		fmt.Fprintf(Output(ctx), "item=%v", item)
		return item, nil
	})

	first := invoke(context.Background(), pctx, step, "a", 0)
	second := invoke(context.Background(), pctx, step, "b", 1)
	if strings.Contains(second.Log, "item=a") {
		t.Errorf("capture leaked across invocations: %q", second.Log)
	}
	if first.Log != "item=a" || second.Log != "item=b" {
		t.Errorf("got %q and %q", first.Log, second.Log)
	}
}

func TestInvoke_FailureKeepsCapturedLog(t *testing.T) {
	pctx := NewContext(t.TempDir(), 1)
	step := NewStep("failing", func(ctx context.Context, _ *Context, item any) (any, error) {
		fmt.Fprint(Output(ctx), "about to fail")
		return nil, fmt.Errorf("no luck with %v", item)
	})

	result := invoke(context.Background(), pctx, step, 3, 0)
	if !result.Failed() {
		t.Fatal("expected failure")
	}
	if result.Log != "about to fail" {
		t.Errorf("diagnostics lost on failure: %q", result.Log)
	}
	if result.Produced() {
		t.Error("failed invocation must not report an output")
	}
}

func TestInvoke_DeterministicRand(t *testing.T) {
	pctx := NewContext(t.TempDir(), 42)
	step := NewStep("draw", func(ctx context.Context, _ *Context, _ any) (any, error) {
		return Rand(ctx).Int63(), nil
	})

	first := invoke(context.Background(), pctx, step, nil, 5)
	second := invoke(context.Background(), pctx, step, nil, 5)
	if first.Output != second.Output {
		t.Errorf("same (seed, stream) must repeat: %v vs %v", first.Output, second.Output)
	}

	other := invoke(context.Background(), pctx, step, nil, 6)
	if first.Output == other.Output {
		t.Errorf("different streams should diverge: both %v", first.Output)
	}
}

func TestInvoke_RecordsDuration(t *testing.T) {
	pctx := NewContext(t.TempDir(), 1)
	step := NewStep("slow", func(_ context.Context, _ *Context, item any) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return item, nil
	})

	result := invoke(context.Background(), pctx, step, 1, 0)
	if result.Duration < 5*time.Millisecond {
		t.Errorf("duration too small: %v", result.Duration)
	}
}

func TestInvoke_PanicBecomesError(t *testing.T) {
	pctx := NewContext(t.TempDir(), 1)
	step := NewStep("panicky", func(_ context.Context, _ *Context, _ any) (any, error) {
		panic("kaboom")
	})

	result := invoke(context.Background(), pctx, step, 1, 0)
	if !result.Failed() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "panic: kaboom") {
		t.Errorf("panic value missing: %q", result.Error)
	}
	if !strings.Contains(result.Error, "goroutine") {
		t.Errorf("stack trace missing: %q", result.Error)
	}
}

func TestOutput_OutsideInvocation(t *testing.T) {
	w := Output(context.Background())
	if _, err := fmt.Fprint(w, "ignored"); err != nil {
		t.Errorf("discard writer must accept writes: %v", err)
	}
}

func TestRand_OutsideInvocation(t *testing.T) {
	a := Rand(context.Background()).Int63()
	b := Rand(context.Background()).Int63()
	if a != b {
		t.Errorf("fallback generator must be fixed: %d vs %d", a, b)
	}
}
