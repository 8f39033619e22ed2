package logger

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldStep      = "step"
	FieldInput     = "input"
	FieldItems     = "items"
	FieldWorkers   = "workers"
	FieldSeed      = "seed"
	FieldProgram   = "program"
	FieldCaptured  = "captured"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields(logger.FieldStep, "ComputeBoundingBox", logger.FieldItems, 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}
