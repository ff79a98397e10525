// Package storage handles publication files and the SQLite keyword catalog.
package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/spacebio/internal/publication"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ErrPublicationsNotFound is returned when the publications file does not exist.
var ErrPublicationsNotFound = errors.New("publications file not found")

// ReadPublications reads a publication list from a JSON array or a JSONL file.
// The format is chosen by extension: ".jsonl" is line-delimited, anything else a JSON array.
// Records are normalized and validated before returning.
func ReadPublications(path string) ([]publication.Publication, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPublicationsNotFound, path)
		}
		return nil, fmt.Errorf("opening publications file: %w", err)
	}
	defer f.Close()

	var pubs []publication.Publication
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		pubs, err = readJSONL(f)
	} else {
		err = json.NewDecoder(bufio.NewReader(f)).Decode(&pubs)
		if err != nil {
			err = fmt.Errorf("parsing publications JSON: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := publication.ValidateAll(pubs); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return pubs, nil
}

func readJSONL(f *os.File) ([]publication.Publication, error) {
	var pubs []publication.Publication
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var p publication.Publication
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		pubs = append(pubs, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading publications file: %w", err)
	}
	return pubs, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// WriteJSON encodes v as indented JSON and writes it atomically.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return WriteFileAtomic(path, append(data, '\n'))
}
