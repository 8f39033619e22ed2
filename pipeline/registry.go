package pipeline

import (
	"sort"
	"sync"
)

// Registry provides named lookup of steps, populate and reduce functions
// for declaratively composed pipelines.
type Registry struct {
	mu        sync.RWMutex
	steps     map[string]*Step
	populates map[string]PopulateFunc
	reduces   map[string]ReduceFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		steps:     make(map[string]*Step),
		populates: make(map[string]PopulateFunc),
		reduces:   make(map[string]ReduceFunc),
	}
}

// RegisterStep adds a map or filter step under the given name.
func (r *Registry) RegisterStep(name string, step *Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[name] = step
}

// Step retrieves a step by name.
func (r *Registry) Step(name string) (*Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.steps[name]
	return s, ok
}

// RegisterPopulate adds a populate function under the given name.
func (r *Registry) RegisterPopulate(name string, fn PopulateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.populates[name] = fn
}

// Populate retrieves a populate function by name.
func (r *Registry) Populate(name string) (PopulateFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.populates[name]
	return fn, ok
}

// RegisterReduce adds a reduce function under the given name.
func (r *Registry) RegisterReduce(name string, fn ReduceFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reduces[name] = fn
}

// Reduce retrieves a reduce function by name.
func (r *Registry) Reduce(name string) (ReduceFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.reduces[name]
	return fn, ok
}

// Steps returns the sorted names of all registered steps.
func (r *Registry) Steps() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
