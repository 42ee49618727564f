package interfaces

// Logger defines structured logging used across the application. The logrus
// implementation lives in infrastructure/logger/logrus; tests use no-op mocks.
//
// Example:
//
//	logger.Warn("LLM rerank failed, using heuristic order", map[string]interface{}{
//		"topic": topic,
//		"error": err.Error(),
//	})
type Logger interface {
	// Debug logs detailed troubleshooting information.
	Debug(msg string, fields map[string]interface{})

	// Info logs general informational messages.
	Info(msg string, fields map[string]interface{})

	// Warn logs potential issues that don't prevent operation, including
	// degraded-mode events such as LLM fallbacks.
	Warn(msg string, fields map[string]interface{})

	// Error logs failures that need attention.
	Error(msg string, fields map[string]interface{})
}
