// ABOUTME: Custom error types for the pipeline
// ABOUTME: Per-item failures are collected, pipeline failures are typed and fatal

package errors

import (
	"errors"
	"fmt"
)

// FetchError represents a per-source network or parse failure. It is
// non-fatal: batch operations collect these alongside successful results.
type FetchError struct {
	SourceID string
	URL      string
	Err      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed for source %s (%s): %v", e.SourceID, e.URL, e.Err)
}

// Unwrap returns the underlying cause
func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError means every extractor in the chain failed or produced
// empty text for a URL.
type ExtractionError struct {
	URL      string
	Attempts []string
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no extractor produced content for %s (tried %v)", e.URL, e.Attempts)
}

// LLMError represents a language-model call failure (timeout, auth, rate
// limit). Consumers fall back to heuristics and log a degraded-mode event.
type LLMError struct {
	Provider string
	Op       string
	Err      error
}

// Error implements the error interface
func (e *LLMError) Error() string {
	return fmt.Sprintf("llm %s failed (%s): %v", e.Op, e.Provider, e.Err)
}

// Unwrap returns the underlying cause
func (e *LLMError) Unwrap() error { return e.Err }

// CatalogWriteError is fatal for a specific publish call. The catalog is
// guaranteed to remain in its prior committed state.
type CatalogWriteError struct {
	ID  string
	Err error
}

// Error implements the error interface
func (e *CatalogWriteError) Error() string {
	return fmt.Sprintf("catalog write failed for %s: %v", e.ID, e.Err)
}

// Unwrap returns the underlying cause
func (e *CatalogWriteError) Unwrap() error { return e.Err }

// ValidationError represents invalid caller input.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// IsFetch checks if an error is a FetchError
func IsFetch(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsExtraction checks if an error is an ExtractionError
func IsExtraction(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee)
}

// IsLLM checks if an error is an LLMError
func IsLLM(err error) bool {
	var le *LLMError
	return errors.As(err, &le)
}

// IsCatalogWrite checks if an error is a CatalogWriteError
func IsCatalogWrite(err error) bool {
	var ce *CatalogWriteError
	return errors.As(err, &ce)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
