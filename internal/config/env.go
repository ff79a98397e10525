package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables holding the Gemini API key, in order of precedence.
const (
	APIKeyEnv         = "GOOGLE_AI_API_KEY"
	APIKeyFallbackEnv = "GEMINI_API_KEY"
)

// LoadEnv loads root/.env into the process environment. Variables already set
// take precedence, and a missing file is not an error.
func LoadEnv(root string) error {
	err := godotenv.Load(EnvPath(root))
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", EnvFile, err)
}

// APIKey returns the Gemini API key from the environment, or "" when unset.
func APIKey() string {
	for _, name := range []string{APIKeyEnv, APIKeyFallbackEnv} {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// WriteEnvTemplate creates root/.env with an empty key entry unless one exists.
func WriteEnvTemplate(root string) (bool, error) {
	path := EnvPath(root)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	env := map[string]string{APIKeyEnv: ""}
	if err := godotenv.Write(env, path); err != nil {
		return false, fmt.Errorf("writing %s: %w", EnvFile, err)
	}
	return true, nil
}
