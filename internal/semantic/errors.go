package semantic

import (
	"errors"
	"fmt"
)

// Errors describing an unusable embedding index.
var (
	ErrIndexNotFound         = errors.New("embedding index not found")
	ErrEmptyIndex            = errors.New("embedding index is empty")
	ErrDimensionMismatch     = errors.New("embedding dimension mismatch")
	ErrUnsupportedVersion    = errors.New("unsupported index version")
	ErrNoProvider            = errors.New("no embedding provider configured")
	ErrPublicationNotIndexed = errors.New("publication not in embedding index")
)

// ErrValidation is wrapped by every rejected search request.
var ErrValidation = errors.New("invalid search request")

// Validation errors, checked before any provider call.
var (
	ErrEmptyQuery       = fmt.Errorf("%w: query must not be empty", ErrValidation)
	ErrInvalidLimit     = fmt.Errorf("%w: limit must be positive", ErrValidation)
	ErrInvalidThreshold = fmt.Errorf("%w: threshold must be within [0, 1]", ErrValidation)
)

// ConfigurationError reports embedding data that is missing, empty or inconsistent.
// It is fatal at startup.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("embedding configuration: %v", e.Err)
	}
	return fmt.Sprintf("embedding configuration (%s): %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
