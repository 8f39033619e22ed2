package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/scenariotools/pipekit/logger"
	"github.com/scenariotools/pipekit/observability"
)

func TestWithTracing_KeepsIdentity(t *testing.T) {
	step := MapStep(double)
	traced := WithTracing(step, "pipekit")

	if traced.Name() != step.Name() {
		t.Errorf("name changed: %q vs %q", traced.Name(), step.Name())
	}
	if traced.ID() != step.ID() {
		t.Error("identity changed")
	}

	out, err := traced.fn(context.Background(), NewContext(t.TempDir(), 1), 3)
	if err != nil {
		t.Fatal(err)
	}
	if out != 6 {
		t.Errorf("got %v, want 6", out)
	}
}

func TestWithMetrics_PassesThrough(t *testing.T) {
	metrics, err := observability.NewMetrics(otel.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	failing := NewStep("failing", func(_ context.Context, _ *Context, _ any) (any, error) {
		return nil, boom
	})
	wrapped := WithMetrics(failing, metrics)

	_, err = wrapped.fn(context.Background(), NewContext(t.TempDir(), 1), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("error swallowed: %v", err)
	}

	ok := WithMetrics(MapStep(double), metrics)
	out, err := ok.fn(context.Background(), NewContext(t.TempDir(), 1), 2)
	if err != nil || out != 4 {
		t.Errorf("got (%v, %v), want (4, nil)", out, err)
	}
}

func TestWithLogging_RecordsFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, "test")

	failing := NewStep("failing", func(_ context.Context, _ *Context, _ any) (any, error) {
		return nil, errors.New("nope")
	})
	wrapped := WithLogging(failing, log)

	if _, err := wrapped.fn(context.Background(), NewContext(t.TempDir(), 1), nil); err == nil {
		t.Fatal("expected error")
	}
	out := buf.String()
	if !strings.Contains(out, "step invocation failed") || !strings.Contains(out, "failing") {
		t.Errorf("failure not logged: %s", out)
	}
}

func TestDecorators_Compose(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWriter(&buf, "test")

	step := WithLogging(WithTracing(MapStep(double), "pipekit"), log)
	if step.Name() != "double" {
		t.Errorf("composition lost the name: %q", step.Name())
	}

	p := New(NewContext(t.TempDir(), 1), WithLogger(log))
	ctx := context.Background()
	if err := p.Populate(ctx, populateInts(1, 2)); err != nil {
		t.Fatal(err)
	}
	if err := p.Map(ctx, step); err != nil {
		t.Fatal(err)
	}
	state := p.State()
	if len(state) != 2 || state[0] != 2 || state[1] != 4 {
		t.Errorf("got %v", state)
	}
}
