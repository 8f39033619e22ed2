package pipeline

import (
	"context"
	"testing"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterStep("double", MapStep(double))
	reg.RegisterPopulate("ints", populateInts(1, 2))
	reg.RegisterReduce("keep", func(_ context.Context, _ *Context, items []any) ([]any, error) {
		return items, nil
	})

	if _, ok := reg.Step("double"); !ok {
		t.Error("step not found")
	}
	if _, ok := reg.Step("missing"); ok {
		t.Error("unexpected step")
	}
	if _, ok := reg.Populate("ints"); !ok {
		t.Error("populate not found")
	}
	if _, ok := reg.Reduce("keep"); !ok {
		t.Error("reduce not found")
	}
}

func TestRegistry_StepsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterStep("zeta", MapStep(double))
	reg.RegisterStep("alpha", MapStep(double))
	reg.RegisterStep("mid", MapStep(double))

	names := reg.Steps()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("got %v", names)
	}
	for i, w := range want {
		if names[i] != w {
			t.Errorf("names[%d] = %q, want %q", i, names[i], w)
		}
	}
}
