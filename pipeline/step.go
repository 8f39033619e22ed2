package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// StepFunc is the pipeline-facing shape of every map and filter stage:
// the invocation context, the shared run Context, and one item.
// Returning (nil, nil) means the stage produced no value for this item,
// which is distinct from failing.
type StepFunc func(ctx context.Context, pctx *Context, item any) (any, error)

// Step is a configuration-bound stage unit. Steps carry a resolved name for
// the result log and a unique identity, so two steps built from the same
// function stay distinguishable within one pipeline.
type Step struct {
	name string
	id   uuid.UUID
	fn   StepFunc
}

// NewStep creates a Step with an explicit name.
func NewStep(name string, fn StepFunc) *Step {
	return &Step{name: name, id: uuid.New(), fn: fn}
}

// StepOf creates a Step named after the given function.
func StepOf(fn StepFunc) *Step {
	return NewStep(functionName(fn), fn)
}

// Name returns the resolved stage name.
func (s *Step) Name() string {
	return s.name
}

// ID returns the unique identity of this step.
func (s *Step) ID() uuid.UUID {
	return s.id
}

// wrap returns a Step with the same name and identity but a decorated
// function. Used by the observability decorators.
func (s *Step) wrap(fn StepFunc) *Step {
	return &Step{name: s.name, id: s.id, fn: fn}
}

// MapStep builds a Step from a typed map function. Items that are not of
// the expected input type fail the invocation instead of panicking.
func MapStep[I, O any](fn func(context.Context, *Context, I) (O, error)) *Step {
	return NewStep(functionName(fn), adaptMap(fn))
}

// BindStep builds a Step from a parametrized map function by fixing its
// arguments once. The step keeps the underlying function's name.
func BindStep[A, I, O any](args A, fn func(A, context.Context, *Context, I) (O, error)) *Step {
	name := functionName(fn)
	bound := func(ctx context.Context, pctx *Context, item I) (O, error) {
		return fn(args, ctx, pctx, item)
	}
	return NewStep(name, adaptMap(bound))
}

// FilterStep builds a Step from a typed predicate. The pipeline keeps the
// items for which the predicate returns true.
func FilterStep[I any](fn func(context.Context, *Context, I) (bool, error)) *Step {
	return NewStep(functionName(fn), adaptMap(fn))
}

// BindFilterStep builds a filter Step from a parametrized predicate by
// fixing its arguments once.
func BindFilterStep[A, I any](args A, fn func(A, context.Context, *Context, I) (bool, error)) *Step {
	name := functionName(fn)
	bound := func(ctx context.Context, pctx *Context, item I) (bool, error) {
		return fn(args, ctx, pctx, item)
	}
	return NewStep(name, adaptMap(bound))
}

func adaptMap[I, O any](fn func(context.Context, *Context, I) (O, error)) StepFunc {
	return func(ctx context.Context, pctx *Context, item any) (any, error) {
		in, ok := item.(I)
		if !ok {
			var want I
			return nil, fmt.Errorf("step input: expected %T, got %T", want, item)
		}
		out, err := fn(ctx, pctx, in)
		if err != nil {
			return nil, err
		}
		return normalizeNil(out), nil
	}
}

// normalizeNil collapses typed nils into untyped nil so that the
// "output present" check on StepResult stays reliable.
func normalizeNil(out any) any {
	if out == nil {
		return nil
	}
	v := reflect.ValueOf(out)
	switch v.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface, reflect.Chan, reflect.Func:
		if v.IsNil() {
			return nil
		}
	}
	return out
}
