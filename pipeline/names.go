package pipeline

import (
	"reflect"
	"runtime"
	"strings"
)

// functionName resolves a stable, human-readable name for a stage function.
// Because argument binding happens before the function is wrapped into a
// Step, the name of the underlying function survives partial application and
// results group correctly in the log.
func functionName(fn any) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return "unknown"
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "unknown"
	}
	return shortFunctionName(rf.Name())
}

// shortFunctionName extracts the simple function name from a full Go
// function path.
//
//	"github.com/scenariotools/pipekit/scenario.ComputeBoundingBox" -> "ComputeBoundingBox"
//	"main.(*Runner).Process-fm" -> "Process"
//	"pkg.Generic[...]" -> "Generic"
func shortFunctionName(full string) string {
	if i := strings.LastIndex(full, "/"); i != -1 {
		full = full[i+1:]
	}
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.Index(full, "["); i != -1 {
		full = full[:i]
	}
	if i := strings.LastIndex(full, "."); i != -1 {
		full = full[i+1:]
	}
	return full
}
