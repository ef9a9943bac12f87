// Package huberrors provides sentinel and custom error types for the application.
package huberrors

import "fmt"

// ErrValidation represents a validation error.
// Use when client input fails validation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrConfiguration is the sentinel for a required capability that is not configured
// (e.g. no embedding provider or no API key). Surfaced before any external call.
var ErrConfiguration = &ConfigurationError{}

// ConfigurationError is a sentinel error for missing server-side configuration.
type ConfigurationError struct {
	Capability string
	Message    string
}

// NewConfigurationError creates a ConfigurationError for the given capability.
func NewConfigurationError(capability, message string) *ConfigurationError {
	return &ConfigurationError{
		Capability: capability,
		Message:    message,
	}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Capability != "" {
		return e.Capability + " is not configured"
	}

	return "service not configured"
}

// Is implements the error interface for error comparison.
func (e *ConfigurationError) Is(target error) bool {
	_, ok := target.(*ConfigurationError)

	return ok
}

// ErrProvider is the sentinel for failures of an external model provider (embedding or generation).
var ErrProvider = &ProviderError{}

// ProviderError wraps a failed call to an external model provider.
// The wrapped error is for logs only; clients get a redacted message.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

// NewProviderError wraps err as a failure of op ("embed", "generate") against provider.
func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Op:       op,
		Err:      err,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.Provider != "" && e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	default:
		return "provider error"
	}
}

// Unwrap returns the underlying provider error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is implements the error interface for error comparison.
func (e *ProviderError) Is(target error) bool {
	_, ok := target.(*ProviderError)

	return ok
}
