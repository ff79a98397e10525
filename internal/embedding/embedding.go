// Package embedding provides vector embedding generation for text.
package embedding

// Embedding represents a vector embedding of text.
type Embedding struct {
	Vector []float32 // e.g. 768 dimensions for gemini-embedding-001 truncated output
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}
