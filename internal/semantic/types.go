// Package semantic provides embedding similarity search over publications.
package semantic

import (
	"time"

	"github.com/matsen/spacebio/internal/publication"
)

// Index holds the pre-computed embedding for every indexed publication.
// An Index is read-only once loaded; searches never mutate it.
type Index struct {
	// Version is the cache format version, checked against CurrentIndexVersion on load.
	Version int `msgpack:"version" json:"version"`

	ModelName  string    `msgpack:"model_name" json:"model_name"` // e.g. "gemini-embedding-001"
	Dimensions int       `msgpack:"dimensions" json:"dimensions"`
	CreatedAt  time.Time `msgpack:"created_at" json:"created_at"`
	Count      int       `msgpack:"count" json:"count"`

	// Orphaned lists IDs dropped at load because no publication matched them.
	Orphaned []int `msgpack:"-" json:"orphaned,omitempty"`

	Embeddings map[int][]float32 `msgpack:"embeddings" json:"-"`
}

// Result is a scored publication ID from the index.
type Result struct {
	PublicationID int     `json:"id"`
	Similarity    float32 `json:"similarity"`
}

// Hit is a search result joined with its publication record.
type Hit struct {
	Publication publication.Publication
	Score       float32
}

// BuildStats contains statistics from an embedding build.
type BuildStats struct {
	Indexed  int           `json:"indexed"`
	Skipped  []int         `json:"skipped,omitempty"`
	Failed   []int         `json:"failed,omitempty"`
	Duration time.Duration `json:"duration"`
}
