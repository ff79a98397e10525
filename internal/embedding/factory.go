package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Settings selects and tunes a provider. Zero values fall back to the
// provider defaults.
type Settings struct {
	Provider   string
	Model      string
	Dimensions int
	BaseURL    string
	Timeout    time.Duration
	APIKey     string
	// TaskType is passed to Gemini; Ollama ignores it.
	TaskType string
}

// New creates the provider named by s.Provider.
func New(ctx context.Context, s Settings) (Provider, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch s.Provider {
	case ProviderGemini, "":
		opts := []GeminiOption{WithHTTPClient(&http.Client{Timeout: timeout})}
		if s.Model != "" {
			opts = append(opts, WithGeminiModel(s.Model))
		}
		if s.Dimensions > 0 {
			opts = append(opts, WithGeminiDimensions(s.Dimensions))
		}
		if s.TaskType != "" {
			opts = append(opts, WithTaskType(s.TaskType))
		}
		p, err := NewGeminiProvider(ctx, s.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil

	case ProviderOllama:
		opts := []OllamaOption{WithTimeout(timeout)}
		if s.BaseURL != "" {
			opts = append(opts, WithBaseURL(s.BaseURL))
		}
		if s.Model != "" {
			opts = append(opts, WithModel(s.Model))
		}
		if s.Dimensions > 0 {
			opts = append(opts, WithDimensions(s.Dimensions))
		}
		return NewOllamaProvider(opts...), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q (want %s or %s)", s.Provider, ProviderGemini, ProviderOllama)
}
