package semantic

import (
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultLimit is the number of results returned when the caller gives none.
	DefaultLimit = 50

	// DefaultThreshold is the minimum similarity a result must reach.
	DefaultThreshold float32 = 0.80
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, or 0 for mismatched or zero vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}
	return float32(dot / denominator)
}

// ValidateRequest checks limit and threshold bounds.
func ValidateRequest(limit int, threshold float32) error {
	if limit <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	if threshold < 0 || threshold > 1 || math.IsNaN(float64(threshold)) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// Search scans every stored vector and returns those scoring at least threshold.
// Results are sorted by similarity descending with ties broken by ascending
// publication ID, then truncated to limit.
func (idx *Index) Search(query []float32, limit int, threshold float32) ([]Result, error) {
	if err := ValidateRequest(limit, threshold); err != nil {
		return nil, err
	}
	if idx.Len() == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != idx.Dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), idx.Dimensions)
	}

	results := make([]Result, 0)
	for id, vec := range idx.Embeddings {
		sim := CosineSimilarity(query, vec)
		if sim >= threshold {
			results = append(results, Result{PublicationID: id, Similarity: sim})
		}
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FindSimilar ranks other publications by similarity to a stored one.
// The source publication is excluded.
func (idx *Index) FindSimilar(id int, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}
	source, ok := idx.Embeddings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPublicationNotIndexed, id)
	}

	results := make([]Result, 0, len(idx.Embeddings))
	for other, vec := range idx.Embeddings {
		if other == id {
			continue
		}
		results = append(results, Result{PublicationID: other, Similarity: CosineSimilarity(source, vec)})
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].PublicationID < results[j].PublicationID
	})
}
