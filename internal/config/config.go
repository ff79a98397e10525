// Package config handles repository configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	SpacebioDir    = ".spacebio"
	ConfigFile     = "config.yml"
	CacheDir       = "cache"
	IndexCacheFile = "embeddings.msgpack"
	EnvFile        = ".env"

	// RootEnv overrides repository discovery.
	RootEnv = "SPACEBIO_ROOT"
	// EnvPrefix prefixes environment overrides, e.g. SPACEBIO_SEARCH_THRESHOLD.
	EnvPrefix = "SPACEBIO"
)

// ErrNotRepository is returned when no .spacebio directory can be found.
var ErrNotRepository = errors.New("not in a spacebio repository (no .spacebio directory found)")

// Duration is a time.Duration written to YAML as "10s" rather than nanoseconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config represents repository configuration stored in .spacebio/config.yml.
type Config struct {
	Data      DataConfig      `mapstructure:"data" yaml:"data"`
	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
	Search    SearchConfig    `mapstructure:"search" yaml:"search"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// DataConfig locates the input files. Relative paths resolve against the repository root.
type DataConfig struct {
	Publications string `mapstructure:"publications" yaml:"publications" validate:"required"`
	Embeddings   string `mapstructure:"embeddings" yaml:"embeddings"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider          string   `mapstructure:"provider" yaml:"provider" validate:"oneof=gemini ollama"`
	Model             string   `mapstructure:"model" yaml:"model,omitempty"`
	Dimensions        int      `mapstructure:"dimensions" yaml:"dimensions" validate:"gte=0"`
	BaseURL           string   `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Timeout           Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
	TaskType          string   `mapstructure:"task_type" yaml:"task_type,omitempty"`
}

// SearchConfig holds semantic search defaults.
type SearchConfig struct {
	Threshold float32  `mapstructure:"threshold" yaml:"threshold" validate:"gte=0,lte=1"`
	Limit     int      `mapstructure:"limit" yaml:"limit" validate:"gt=0"`
	Timeout   Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address         string   `mapstructure:"address" yaml:"address" validate:"required"`
	ReadTimeout     Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// CORSOrigins lists browser origins allowed to call the API; "*" allows any.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

// Default returns the configuration written by `spacebio init`.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.publications", "data/publications.json")
	v.SetDefault("data.embeddings", "data/embeddings.json")

	v.SetDefault("embedding.provider", "gemini")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.timeout", "30s")
	v.SetDefault("embedding.requests_per_second", 1.0)
	v.SetDefault("embedding.task_type", "SEMANTIC_SIMILARITY")

	v.SetDefault("search.threshold", 0.80)
	v.SetDefault("search.limit", 50)
	v.SetDefault("search.timeout", "10s")

	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SpacebioPath returns the path to the .spacebio directory from a root path.
func SpacebioPath(root string) string {
	return filepath.Join(root, SpacebioDir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, SpacebioDir, ConfigFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, SpacebioDir, CacheDir)
}

// IndexCachePath returns the path to the msgpack embedding cache from a root path.
func IndexCachePath(root string) string {
	return filepath.Join(root, SpacebioDir, CacheDir, IndexCacheFile)
}

// EnvPath returns the path to the .env file from a root path.
func EnvPath(root string) string {
	return filepath.Join(root, EnvFile)
}

// IsRepository checks if the given path contains a spacebio repository.
func IsRepository(root string) bool {
	info, err := os.Stat(SpacebioPath(root))
	return err == nil && info.IsDir()
}

// FindRepository returns $SPACEBIO_ROOT when set, and otherwise walks up from
// start to find a directory containing .spacebio.
func FindRepository(start string) (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		root = ExpandPath(root)
		if !IsRepository(root) {
			return "", fmt.Errorf("%s=%s: %w", RootEnv, root, ErrNotRepository)
		}
		return filepath.Abs(root)
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// Load reads configuration for the repository at root: defaults, then
// .spacebio/config.yml when present, then SPACEBIO_* environment variables.
func Load(root string) (*Config, error) {
	v, err := readViper(root)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readViper(root string) (*viper.Viper, error) {
	v := newViper()
	v.SetConfigFile(ConfigPath(root))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

var (
	durationType    = reflect.TypeOf(Duration(0))
	stringSliceType = reflect.TypeOf([]string(nil))
)

// decodeHook handles the non-scalar values that arrive as strings from env
// vars and `config set`.
func decodeHook(from, to reflect.Type, data any) (any, error) {
	if to == stringSliceType {
		if s, ok := data.(string); ok {
			return splitList(s), nil
		}
		return data, nil
	}
	return durationHook(from, to, data)
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	items := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// durationHook decodes "10s" strings and plain integers (nanoseconds) into Duration.
func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		return Duration(d), nil
	case int:
		return Duration(v), nil
	case int64:
		return Duration(v), nil
	case time.Duration:
		return Duration(v), nil
	}
	return data, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(SpacebioPath(root), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", SpacebioDir, err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Get returns a single configuration value by dotted key, e.g. "search.threshold".
func Get(root, key string) (any, error) {
	v, err := readViper(root)
	if err != nil {
		return nil, err
	}
	if !isKnownKey(v, key) {
		return nil, fmt.Errorf("unknown config key: %s (valid: %s)", key, strings.Join(v.AllKeys(), ", "))
	}
	return v.Get(key), nil
}

// Set updates one configuration value, validates the result and saves it.
func Set(root, key, value string) (*Config, error) {
	v, err := readViper(root)
	if err != nil {
		return nil, err
	}
	if !isKnownKey(v, key) {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	v.Set(key, value)

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isKnownKey(v *viper.Viper, key string) bool {
	key = strings.ToLower(key)
	for _, k := range v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Resolve returns path unchanged when absolute and joined to root otherwise.
func Resolve(root, path string) string {
	path = ExpandPath(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// PublicationsPath returns the resolved publications file path.
func (c *Config) PublicationsPath(root string) string {
	return Resolve(root, c.Data.Publications)
}

// EmbeddingsPath returns the resolved embeddings file path, or "" when unset.
func (c *Config) EmbeddingsPath(root string) string {
	return Resolve(root, c.Data.Embeddings)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
