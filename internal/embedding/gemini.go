package embedding

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const (
	// DefaultGeminiModel is the Gemini embedding model the dataset was built with.
	DefaultGeminiModel = "gemini-embedding-001"

	// TaskSemanticSimilarity asks Gemini for vectors tuned for symmetric similarity.
	TaskSemanticSimilarity = "SEMANTIC_SIMILARITY"
)

// contentEmbedder is the subset of *genai.Models used by GeminiProvider.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiProvider generates embeddings with the Google Gemini API.
type GeminiProvider struct {
	models     contentEmbedder
	model      string
	dimensions int
	taskType   string
	httpClient *http.Client
}

// GeminiOption configures a GeminiProvider.
type GeminiOption func(*GeminiProvider)

// WithGeminiModel sets the embedding model.
func WithGeminiModel(model string) GeminiOption {
	return func(p *GeminiProvider) {
		p.model = model
	}
}

// WithGeminiDimensions sets the requested output dimensionality.
// Zero keeps the model's native size.
func WithGeminiDimensions(dims int) GeminiOption {
	return func(p *GeminiProvider) {
		p.dimensions = dims
	}
}

// WithTaskType overrides the embedding task type.
func WithTaskType(taskType string) GeminiOption {
	return func(p *GeminiProvider) {
		p.taskType = taskType
	}
}

// WithHTTPClient sets the HTTP client used by the genai SDK.
func WithHTTPClient(client *http.Client) GeminiOption {
	return func(p *GeminiProvider) {
		p.httpClient = client
	}
}

// NewGeminiProvider creates a Gemini embedding provider for the given API key.
func NewGeminiProvider(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, providerError(ProviderGemini, "connect", ErrMissingAPIKey)
	}

	p := newGeminiProvider(nil, opts...)
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	})
	if err != nil {
		return nil, providerError(ProviderGemini, "connect", fmt.Errorf("creating client: %w", err))
	}
	p.models = client.Models
	return p, nil
}

func newGeminiProvider(models contentEmbedder, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		models:     models,
		model:      DefaultGeminiModel,
		dimensions: DefaultDimensions,
		taskType:   TaskSemanticSimilarity,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Embed generates an embedding for the given text.
func (p *GeminiProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	cfg := &genai.EmbedContentConfig{TaskType: p.taskType}
	if p.dimensions > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(p.dimensions))
	}

	resp, err := p.models.EmbedContent(ctx, p.model, genai.Text(text), cfg)
	if err != nil {
		return Embedding{}, providerError(ProviderGemini, "embed", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return Embedding{}, providerError(ProviderGemini, "embed", ErrEmptyResponse)
	}

	values := resp.Embeddings[0].Values
	if p.dimensions > 0 && len(values) != p.dimensions {
		return Embedding{}, providerError(ProviderGemini, "embed",
			fmt.Errorf("%w: got %d, want %d", ErrUnexpectedDimensions, len(values), p.dimensions))
	}
	return Embedding{Vector: values}, nil
}

// ModelName returns the name of the embedding model.
func (p *GeminiProvider) ModelName() string {
	return p.model
}

// Dimensions returns the requested vector dimensions.
func (p *GeminiProvider) Dimensions() int {
	return p.dimensions
}
