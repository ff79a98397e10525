package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/repo"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"SpacebioPath", SpacebioPath, "/test/repo/.spacebio"},
		{"ConfigPath", ConfigPath, "/test/repo/.spacebio/config.yml"},
		{"CachePath", CachePath, "/test/repo/.spacebio/cache"},
		{"IndexCachePath", IndexCachePath, "/test/repo/.spacebio/cache/embeddings.msgpack"},
		{"EnvPath", EnvPath, "/test/repo/.env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn(root)
			if got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func newRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.Mkdir(SpacebioPath(root), 0755); err != nil {
		t.Fatalf("creating .spacebio: %v", err)
	}
	return root
}

func TestIsRepository(t *testing.T) {
	tmpDir := t.TempDir()
	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true for non-repo directory")
	}

	if err := os.WriteFile(SpacebioPath(tmpDir), []byte("not a dir"), 0644); err != nil {
		t.Fatal(err)
	}
	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true when .spacebio is a file")
	}

	if !IsRepository(newRepo(t)) {
		t.Error("IsRepository() = false for repo directory")
	}
}

func TestFindRepository(t *testing.T) {
	t.Setenv(RootEnv, "")
	repoDir := newRepo(t)
	nestedDir := filepath.Join(repoDir, "data", "raw")
	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}

	found, err := FindRepository(nestedDir)
	if err != nil {
		t.Fatalf("FindRepository() error = %v", err)
	}
	if found != repoDir {
		t.Errorf("FindRepository() = %q, want %q", found, repoDir)
	}

	_, err = FindRepository(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("FindRepository() error = %v, want ErrNotRepository", err)
	}
}

func TestFindRepository_RootEnv(t *testing.T) {
	repoDir := newRepo(t)
	t.Setenv(RootEnv, repoDir)

	found, err := FindRepository(t.TempDir())
	if err != nil {
		t.Fatalf("FindRepository() error = %v", err)
	}
	if found != repoDir {
		t.Errorf("FindRepository() = %q, want %q", found, repoDir)
	}

	t.Setenv(RootEnv, t.TempDir())
	if _, err := FindRepository("."); !errors.Is(err, ErrNotRepository) {
		t.Errorf("FindRepository() error = %v, want ErrNotRepository", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Search.Threshold != 0.80 {
		t.Errorf("Search.Threshold = %v, want 0.80", cfg.Search.Threshold)
	}
	if cfg.Search.Limit != 50 {
		t.Errorf("Search.Limit = %d, want 50", cfg.Search.Limit)
	}
	if cfg.Search.Timeout.Std() != 10*time.Second {
		t.Errorf("Search.Timeout = %v, want 10s", cfg.Search.Timeout.Std())
	}
	if cfg.Embedding.Provider != "gemini" {
		t.Errorf("Embedding.Provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.TaskType != "SEMANTIC_SIMILARITY" {
		t.Errorf("Embedding.TaskType = %q", cfg.Embedding.TaskType)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("Server.CORSOrigins = %v, want [http://localhost:3000]", cfg.Server.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	root := newRepo(t)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != "127.0.0.1:8080" {
		t.Errorf("Server.Address = %q", cfg.Server.Address)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	root := newRepo(t)

	cfg := Default()
	cfg.Data.Publications = "pubs.jsonl"
	cfg.Search.Threshold = 0.65
	cfg.Search.Timeout = Duration(3 * time.Second)
	cfg.Embedding.Provider = "ollama"
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "timeout: 3s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Data.Publications != "pubs.jsonl" {
		t.Errorf("Data.Publications = %q", loaded.Data.Publications)
	}
	if loaded.Search.Threshold != 0.65 {
		t.Errorf("Search.Threshold = %v, want 0.65", loaded.Search.Threshold)
	}
	if loaded.Search.Timeout.Std() != 3*time.Second {
		t.Errorf("Search.Timeout = %v, want 3s", loaded.Search.Timeout.Std())
	}
	if loaded.Embedding.Provider != "ollama" {
		t.Errorf("Embedding.Provider = %q", loaded.Embedding.Provider)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	root := newRepo(t)
	t.Setenv("SPACEBIO_SEARCH_THRESHOLD", "0.7")
	t.Setenv("SPACEBIO_SERVER_ADDRESS", ":9000")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Search.Threshold != 0.7 {
		t.Errorf("Search.Threshold = %v, want 0.7", cfg.Search.Threshold)
	}
	if cfg.Server.Address != ":9000" {
		t.Errorf("Server.Address = %q, want :9000", cfg.Server.Address)
	}
}

func TestLoad_CORSOriginsFromEnv(t *testing.T) {
	root := newRepo(t)
	t.Setenv("SPACEBIO_SERVER_CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "search: [unclosed"},
		{"threshold out of range", "search:\n  threshold: 1.5\n"},
		{"unknown provider", "embedding:\n  provider: openai\n"},
		{"bad duration", "search:\n  timeout: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newRepo(t)
			if err := os.WriteFile(ConfigPath(root), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(root); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	root := newRepo(t)

	cfg, err := Set(root, "search.limit", "25")
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.Search.Limit != 25 {
		t.Errorf("Search.Limit = %d, want 25", cfg.Search.Limit)
	}

	got, err := Get(root, "search.limit")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != 25 {
		t.Errorf("Get() = %v (%T), want 25", got, got)
	}

	if _, err := Set(root, "search.threshold", "2"); err == nil {
		t.Error("Set() should reject an out-of-range threshold")
	}
	if _, err := Set(root, "pdf_root", "/tmp"); err == nil {
		t.Error("Set() should reject unknown keys")
	}
	if _, err := Get(root, "nope"); err == nil {
		t.Error("Get() should reject unknown keys")
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"/repo", "data/pubs.json", "/repo/data/pubs.json"},
		{"/repo", "/abs/pubs.json", "/abs/pubs.json"},
		{"/repo", "", ""},
	}
	for _, tt := range tests {
		if got := Resolve(tt.root, tt.path); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("ExpandPath(~/data) = %q", got)
	}
	if got := ExpandPath("/abs"); got != "/abs" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
}
