package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/spacebio/internal/config"
	"github.com/matsen/spacebio/internal/dataset"
	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/graph"
	"github.com/matsen/spacebio/internal/publication"
	"github.com/matsen/spacebio/internal/semantic"
	"github.com/matsen/spacebio/internal/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world", 8, "hello..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9, "  ")
	want := "one two\n  three\n  four"
	if got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
	if got := wrapText("fits", 9, "  "); got != "fits" {
		t.Errorf("wrapText(short) = %q, want %q", got, "fits")
	}
}

func TestYearSuffix(t *testing.T) {
	tests := map[string]string{
		"2021-05-01": " (2021)",
		"2019":       " (2019)",
		"":           "",
		"n/a":        "",
	}
	for in, want := range tests {
		if got := yearSuffix(in); got != want {
			t.Errorf("yearSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m 30s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{1536, "1.5 KB"},
		{1 << 20, "1.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{0, 0, ""},
		{15, 30, "[===============>              ] 15/30 (50%)"},
		{30, 30, "[==============================] 30/30 (100%)"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.current, tt.total); got != tt.want {
			t.Errorf("progressBar(%d, %d) = %q, want %q", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestFirstN(t *testing.T) {
	ids := []int{1, 2, 3, 4}
	if got := firstN(ids, 2); len(got) != 2 || got[1] != 2 {
		t.Errorf("firstN(ids, 2) = %v, want [1 2]", got)
	}
	if got := firstN(ids, 10); len(got) != 4 {
		t.Errorf("firstN(ids, 10) = %v, want all 4", got)
	}
	if got := firstN(nil, 10); got != nil {
		t.Errorf("firstN(nil, 10) = %v, want nil", got)
	}
}

func TestBuildResults(t *testing.T) {
	hits := []semantic.Hit{
		{Publication: publication.Publication{ID: 3, Title: "Bone loss", Authors: []string{"Doe, J."}, Summary: "s", PublicationDate: "2020-01-01"}, Score: 0.9},
		{Publication: publication.Publication{ID: 1, Title: "Muscle", Summary: "m"}, Score: 0.85},
	}

	got := buildResults(hits, false)
	if len(got) != 2 {
		t.Fatalf("buildResults() len = %d, want 2", len(got))
	}
	if got[0].ID != 3 || got[0].Similarity != 0.9 || got[0].Date != "2020-01-01" {
		t.Errorf("buildResults()[0] = %+v", got[0])
	}
	if got[0].Summary != "" {
		t.Errorf("Summary = %q without includeSummary, want empty", got[0].Summary)
	}

	if got := buildResults(hits, true); got[1].Summary != "m" {
		t.Errorf("Summary = %q with includeSummary, want %q", got[1].Summary, "m")
	}
	if got := buildResults(nil, true); got == nil || len(got) != 0 {
		t.Errorf("buildResults(nil) = %v, want empty non-nil slice", got)
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitError},
		{"missing embeddings", &semantic.ConfigurationError{Path: "e.json", Err: semantic.ErrIndexNotFound}, ExitConfigError},
		{"missing publications", fmt.Errorf("%w: p.json", storage.ErrPublicationsNotFound), ExitConfigError},
		{"missing API key", &embedding.ProviderError{Provider: "gemini", Op: "connect", Err: embedding.ErrMissingAPIKey}, ExitConfigError},
		{"provider timeout", &embedding.ProviderError{Provider: "gemini", Op: "embed", Err: context.DeadlineExceeded}, ExitProviderError},
		{"malformed embeddings", &semantic.ConfigurationError{Path: "e.json", Err: semantic.ErrEmptyIndex}, ExitDataError},
		{"no publications", dataset.ErrNoPublications, ExitDataError},
		{"duplicate index", fmt.Errorf("validating: %w", publication.ErrDuplicateID), ExitDataError},
		{"empty graph", graph.ErrEmptyGraph, ExitDataError},
		{"node not found", fmt.Errorf("%w: author_x", graph.ErrNodeNotFound), ExitNotFound},
		{"not indexed", semantic.ErrPublicationNotIndexed, ExitNotFound},
		{"validation", fmt.Errorf("%w: limit", semantic.ErrValidation), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestProviderSettings(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "test-key")
	t.Setenv(config.APIKeyFallbackEnv, "")

	cfg := config.Default()
	cfg.Embedding.Provider = "ollama"
	cfg.Embedding.BaseURL = "http://localhost:11434"

	s := providerSettings(cfg)
	if s.Provider != "ollama" || s.BaseURL != "http://localhost:11434" {
		t.Errorf("providerSettings() = %+v", s)
	}
	if s.APIKey != "test-key" {
		t.Errorf("APIKey = %q, want %q", s.APIKey, "test-key")
	}
	if s.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", s.Timeout)
	}
	if s.Dimensions != 768 {
		t.Errorf("Dimensions = %d, want 768", s.Dimensions)
	}
	if s.TaskType != "SEMANTIC_SIMILARITY" {
		t.Errorf("TaskType = %q, want SEMANTIC_SIMILARITY", s.TaskType)
	}
}

func TestSnapshotOptions_RequireEmbeddings(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	pubPath := cfg.PublicationsPath(root)
	if err := os.MkdirAll(filepath.Dir(pubPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pubPath, []byte(`[{"index": 0, "title": "Bone loss in orbit"}]`), 0644); err != nil {
		t.Fatal(err)
	}

	opts := snapshotOptions(root, cfg, zerolog.Nop())
	snap, err := dataset.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() without embeddings error = %v", err)
	}
	snap.Close()

	opts.RequireEmbeddings = true
	if _, err := dataset.Load(context.Background(), opts); exitCodeFor(err) != ExitConfigError {
		t.Errorf("exitCodeFor(%v) = %d, want %d", err, exitCodeFor(err), ExitConfigError)
	}
}

func TestServeFlags(t *testing.T) {
	if f := serveCmd.Flags().Lookup("require-semantic"); f == nil || f.DefValue != "false" {
		t.Fatalf("serve --require-semantic flag = %+v", f)
	}
}

func TestFlagCompletions(t *testing.T) {
	tests := []struct {
		cmd  *cobra.Command
		flag string
		want string
	}{
		{graphCentralityCmd, "kind", "betweenness"},
		{graphFindCmd, "type", "journal"},
		{vizCmd, "layout", "circle"},
	}
	for _, tt := range tests {
		fn, ok := tt.cmd.GetFlagCompletionFunc(tt.flag)
		if !ok {
			t.Errorf("%s --%s has no completion", tt.cmd.Name(), tt.flag)
			continue
		}
		choices, _ := fn(tt.cmd, nil, "")
		found := false
		for _, c := range choices {
			if c == tt.want {
				found = true
			}
		}
		if !found {
			t.Errorf("%s --%s completions = %v, missing %q", tt.cmd.Name(), tt.flag, choices, tt.want)
		}
	}
}
