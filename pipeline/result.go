package pipeline

import "time"

// StepResult records a single stage invocation on a single item.
// It is immutable after creation; construction happens only inside invoke.
//
// Output and Error are mutually exclusive. Both being absent is legal: it
// means the stage returned no value without failing, which drops the item
// from the collection without counting as an error.
type StepResult struct {
	// Step is the resolved name of the stage.
	Step string
	// Input is the item the stage was invoked on.
	Input any
	// Output is the produced value, or nil if the stage produced none.
	Output any
	// Error describes the failure, including a stack trace for panics.
	// Empty on success.
	Error string
	// Log is the diagnostic text the stage emitted during the call.
	Log string
	// Duration is the wall-clock time of the call, success or not.
	Duration time.Duration
}

// Failed reports whether the invocation ended in a failure.
func (r *StepResult) Failed() bool {
	return r.Error != ""
}

// Produced reports whether the invocation yielded an output value.
func (r *StepResult) Produced() bool {
	return r.Output != nil
}
