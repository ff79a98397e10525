package semantic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/spacebio/internal/storage"
)

// batchFile is the export format of the offline embedding batch: publications
// and embeddings are parallel arrays.
type batchFile struct {
	Publications []struct {
		Index int `json:"index"`
	} `json:"publications"`
	Embeddings [][]float32 `json:"embeddings"`
	Metadata   struct {
		Model       string `json:"model"`
		GeneratedAt string `json:"generated_at"`
	} `json:"metadata"`
}

// ReadEmbeddingsFile parses an embeddings file into an Index.
//
// Two layouts are accepted: a mapping from publication ID to vector, and the
// batch export with parallel "publications" and "embeddings" arrays. Every
// failure is a *ConfigurationError.
func ReadEmbeddingsFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigurationError{Path: path, Err: ErrIndexNotFound}
		}
		return nil, &ConfigurationError{Path: path, Err: fmt.Errorf("reading embeddings: %w", err)}
	}

	idx, err := parseEmbeddings(data)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	if idx.Len() == 0 {
		return nil, &ConfigurationError{Path: path, Err: ErrEmptyIndex}
	}
	return idx, nil
}

func parseEmbeddings(data []byte) (*Index, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing embeddings JSON: %w", err)
	}

	if _, ok := raw["embeddings"]; ok {
		return parseBatch(data)
	}

	idx := NewIndex("", 0)
	for key, value := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("invalid publication id %q", key)
		}
		var vec []float32
		if err := json.Unmarshal(value, &vec); err != nil {
			return nil, fmt.Errorf("parsing vector for %d: %w", id, err)
		}
		if len(vec) == 0 {
			continue
		}
		if err := idx.Add(id, vec); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func parseBatch(data []byte) (*Index, error) {
	var batch batchFile
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parsing batch embeddings: %w", err)
	}
	if len(batch.Embeddings) > len(batch.Publications) {
		return nil, fmt.Errorf("batch has %d embeddings for %d publications",
			len(batch.Embeddings), len(batch.Publications))
	}

	idx := NewIndex(batch.Metadata.Model, 0)
	if t, err := time.Parse(time.RFC3339Nano, batch.Metadata.GeneratedAt); err == nil {
		idx.CreatedAt = t
	}
	for i, vec := range batch.Embeddings {
		// The batch records an empty vector for publications it failed to embed.
		if len(vec) == 0 {
			continue
		}
		if err := idx.Add(batch.Publications[i].Index, vec); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// WriteEmbeddingsFile writes the index as a mapping from publication ID to
// vector, keys in numeric order so rebuilt files diff cleanly.
func WriteEmbeddingsFile(path string, idx *Index) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, id := range idx.IDs() {
		vec, err := json.Marshal(idx.Embeddings[id])
		if err != nil {
			return fmt.Errorf("encoding embedding %d: %w", id, err)
		}
		if i > 0 {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "\n  %q: %s", strconv.Itoa(id), vec)
	}
	buf.WriteString("\n}\n")
	return storage.WriteFileAtomic(path, buf.Bytes())
}
