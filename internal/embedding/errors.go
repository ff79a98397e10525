package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Errors wrapped inside ProviderError.
var (
	ErrMissingAPIKey        = errors.New("embedding provider API key not configured")
	ErrEmptyResponse        = errors.New("provider returned no embedding")
	ErrUnexpectedDimensions = errors.New("unexpected embedding dimensions")
)

// ProviderError reports a failed call to an external embedding provider.
// Callers treat it as retryable and distinct from "no results".
type ProviderError struct {
	Provider string // gemini, ollama
	Op       string // embed, list-models
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call failed because a deadline expired.
func (e *ProviderError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Temporary is always true: provider failures are worth retrying later.
func (e *ProviderError) Temporary() bool {
	return true
}

// IsProviderError reports whether err is or wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func providerError(provider, op string, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}
