// ABOUTME: Dependencies container provides dependency injection for core services
// ABOUTME: Defines the contract for dependencies required by the pipeline

package interfaces

// Dependencies holds the external dependencies shared by the core services.
type Dependencies struct {
	// Cache provides the byte-oriented cache backend
	Cache Cache

	// HTTPClient provides HTTP request functionality
	HTTPClient HTTPClient

	// Logger provides structured logging
	Logger Logger

	// LLM provides optional language-model scoring; may be nil or
	// unavailable, in which case services use their heuristic fallbacks
	LLM LLM
}
