package semantic

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/matsen/spacebio/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
)

// CurrentIndexVersion is the cache format version.
// Increment this when making breaking changes to the cache layout.
const CurrentIndexVersion = 1

// NewIndex creates an empty index for the given model.
func NewIndex(modelName string, dimensions int) *Index {
	return &Index{
		Version:    CurrentIndexVersion,
		ModelName:  modelName,
		Dimensions: dimensions,
		CreatedAt:  time.Now().UTC(),
		Embeddings: make(map[int][]float32),
	}
}

// Add stores the embedding for a publication, replacing any previous one.
// The first vector fixes the dimensionality when the index was created with zero.
func (idx *Index) Add(id int, vector []float32) error {
	if idx.Dimensions == 0 && len(idx.Embeddings) == 0 {
		idx.Dimensions = len(vector)
	}
	if len(vector) != idx.Dimensions {
		return fmt.Errorf("%w: publication %d has %d, want %d", ErrDimensionMismatch, id, len(vector), idx.Dimensions)
	}
	idx.Embeddings[id] = vector
	idx.Count = len(idx.Embeddings)
	return nil
}

// Len returns the number of indexed publications.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Embeddings)
}

// Has checks if a publication is in the index.
func (idx *Index) Has(id int) bool {
	_, ok := idx.Embeddings[id]
	return ok
}

// IDs returns the indexed publication IDs in ascending order.
func (idx *Index) IDs() []int {
	ids := make([]int, 0, len(idx.Embeddings))
	for id := range idx.Embeddings {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Restrict drops every embedding whose ID is not known, records the
// dropped IDs in Orphaned and returns them in ascending order.
func (idx *Index) Restrict(known func(id int) bool) []int {
	var dropped []int
	for id := range idx.Embeddings {
		if !known(id) {
			dropped = append(dropped, id)
		}
	}
	sort.Ints(dropped)
	for _, id := range dropped {
		delete(idx.Embeddings, id)
	}
	idx.Count = len(idx.Embeddings)
	idx.Orphaned = dropped
	return dropped
}

// Save writes the index to a msgpack cache file.
func (idx *Index) Save(path string) error {
	data, err := msgpack.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing index cache: %w", err)
	}
	return nil
}

// Load reads an index from a msgpack cache file.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("opening index cache: %w", err)
	}
	defer f.Close()

	var idx Index
	if err := msgpack.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decoding index cache: %w", err)
	}

	if idx.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'spacebio index build')",
			ErrUnsupportedVersion, idx.Version, CurrentIndexVersion)
	}
	if idx.Embeddings == nil {
		idx.Embeddings = make(map[int][]float32)
	}
	idx.Count = len(idx.Embeddings)
	return &idx, nil
}

// LoadCached returns the index from cachePath when the cache is at least as
// new as the embeddings file, and parses the embeddings file otherwise.
// The boolean reports whether the cache was used. An unreadable cache is
// ignored in favour of the embeddings file.
func LoadCached(embeddingsPath, cachePath string) (*Index, bool, error) {
	jsonInfo, jsonErr := os.Stat(embeddingsPath)

	if cachePath != "" {
		if cacheInfo, err := os.Stat(cachePath); err == nil {
			if jsonErr != nil || !cacheInfo.ModTime().Before(jsonInfo.ModTime()) {
				if idx, err := Load(cachePath); err == nil {
					return idx, true, nil
				}
			}
		}
	}

	idx, err := ReadEmbeddingsFile(embeddingsPath)
	if err != nil {
		return nil, false, err
	}
	return idx, false, nil
}
