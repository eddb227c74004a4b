package observability

import (
	"runtime/debug"
)

// RecoverPanic logs a panic in a background task instead of letting it kill
// the process. Defer it directly:
//
//	defer observability.RecoverPanic(logger, "gauge refresh")
func RecoverPanic(logger *Logger, task string) {
	if r := recover(); r != nil {
		logger.WithFields(map[string]interface{}{
			"panic": r,
			"task":  task,
			"stack": string(debug.Stack()),
		}).Error("Recovered from panic")
	}
}
