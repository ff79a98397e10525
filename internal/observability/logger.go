package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig contains logger configuration options.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is the output format (json, console).
	Format string

	// Output is the output destination (stdout, stderr).
	Output string

	// Writer overrides Output when set.
	Writer io.Writer
}

// DefaultLoggingConfig returns a LoggingConfig with sensible defaults.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// NewLogger creates a new zerolog logger based on configuration.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	output := cfg.Writer
	if output == nil {
		switch strings.ToLower(cfg.Output) {
		case "stdout":
			output = os.Stdout
		default:
			output = os.Stderr
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	if f := strings.ToLower(cfg.Format); f == "console" || f == "pretty" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Logger().
		Level(ParseLevel(cfg.Level))
}

// ParseLevel converts a string log level to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Component returns a child logger tagged with a component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}

// WithSearchContext adds search fields to a logger.
func WithSearchContext(logger zerolog.Logger, searchType string, limit int) zerolog.Logger {
	return logger.With().
		Str("search_type", searchType).
		Int("limit", limit).
		Logger()
}
