package embedding

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

// fakeEmbedder records the last request and returns a canned response.
type fakeEmbedder struct {
	embedFn func(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)

	lastModel  string
	lastConfig *genai.EmbedContentConfig
}

func (f *fakeEmbedder) EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.lastModel = model
	f.lastConfig = config
	return f.embedFn(ctx, model, contents, config)
}

func vectorResponse(values ...float32) *genai.EmbedContentResponse {
	return &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: values}},
	}
}

func TestGeminiProvider_Embed(t *testing.T) {
	fake := &fakeEmbedder{
		embedFn: func(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
			return vectorResponse(1, 0, 0), nil
		},
	}
	p := newGeminiProvider(fake, WithGeminiDimensions(3))

	emb, err := p.Embed(context.Background(), "spaceflight")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if emb.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", emb.Dimensions())
	}
	if fake.lastModel != DefaultGeminiModel {
		t.Errorf("model = %s, want %s", fake.lastModel, DefaultGeminiModel)
	}
	if fake.lastConfig.TaskType != TaskSemanticSimilarity {
		t.Errorf("TaskType = %s, want %s", fake.lastConfig.TaskType, TaskSemanticSimilarity)
	}
	if fake.lastConfig.OutputDimensionality == nil || *fake.lastConfig.OutputDimensionality != 3 {
		t.Errorf("OutputDimensionality = %v, want 3", fake.lastConfig.OutputDimensionality)
	}
}

func TestGeminiProvider_NativeDimensions(t *testing.T) {
	fake := &fakeEmbedder{
		embedFn: func(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
			return vectorResponse(1, 2, 3, 4, 5), nil
		},
	}
	p := newGeminiProvider(fake, WithGeminiDimensions(0), WithGeminiModel("text-embedding-004"))

	emb, err := p.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if emb.Dimensions() != 5 {
		t.Errorf("Dimensions() = %d, want 5", emb.Dimensions())
	}
	if fake.lastConfig.OutputDimensionality != nil {
		t.Error("OutputDimensionality should be unset for native size")
	}
	if p.ModelName() != "text-embedding-004" {
		t.Errorf("ModelName() = %s", p.ModelName())
	}
}

func TestGeminiProvider_Errors(t *testing.T) {
	quota := errors.New("Error 429, Message: Resource has been exhausted")

	tests := []struct {
		name    string
		resp    *genai.EmbedContentResponse
		err     error
		wantErr error
	}{
		{"api error", nil, quota, quota},
		{"deadline", nil, context.DeadlineExceeded, context.DeadlineExceeded},
		{"nil response", nil, nil, ErrEmptyResponse},
		{"no embeddings", &genai.EmbedContentResponse{}, nil, ErrEmptyResponse},
		{"wrong size", vectorResponse(1, 2), nil, ErrUnexpectedDimensions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEmbedder{
				embedFn: func(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
					return tt.resp, tt.err
				},
			}
			p := newGeminiProvider(fake, WithGeminiDimensions(3))

			_, err := p.Embed(context.Background(), "q")
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("Embed() error = %v, want *ProviderError", err)
			}
			if pe.Provider != ProviderGemini {
				t.Errorf("Provider = %s, want %s", pe.Provider, ProviderGemini)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Embed() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewGeminiProvider_MissingKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("NewGeminiProvider() error = %v, want ErrMissingAPIKey", err)
	}
	if !IsProviderError(err) {
		t.Error("missing key should be reported as a provider error")
	}
}

func TestGeminiProvider_ImplementsProvider(t *testing.T) {
	var _ Provider = (*GeminiProvider)(nil)
}
