package main

import (
	"fmt"

	"github.com/matsen/spacebio/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set configuration values",
	Long: `Get or set values in .spacebio/config.yml.

Keys are dotted paths, for example:
  data.publications        Publications file (JSON array or JSONL)
  data.embeddings          Embeddings file (ID -> vector mapping or batch export)
  embedding.provider       gemini or ollama
  embedding.model          Embedding model name
  embedding.dimensions     Vector length requested from the provider
  search.threshold         Default minimum similarity (0.0-1.0)
  search.limit             Default maximum results
  server.address           HTTP listen address
  logging.level            trace, debug, info, warn or error

Any key can also be set with an environment variable such as
SPACEBIO_SEARCH_THRESHOLD=0.7.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show all configuration or a single value",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

// ConfigValueResponse is the response for config get with a key.
type ConfigValueResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// UpdateResponse is the response for config set.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	if len(args) == 1 {
		value, err := config.Get(repoRoot, args[0])
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(ConfigValueResponse{Key: args[0], Value: value})
		}
		return nil
	}

	cfg := mustLoadConfig(repoRoot)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		exitWithError(ExitError, "encoding config: %v", err)
	}
	if humanOutput {
		fmt.Print(string(data))
		return nil
	}

	// Round-trip through YAML so JSON output uses the same keys as config.yml.
	var settings map[string]any
	if err := yaml.Unmarshal(data, &settings); err != nil {
		exitWithError(ExitError, "encoding config: %v", err)
	}
	outputJSON(settings)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	key, value := args[0], args[1]

	if _, err := config.Set(repoRoot, key, value); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}
