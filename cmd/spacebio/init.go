package main

import (
	"fmt"
	"os"

	"github.com/matsen/spacebio/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new spacebio repository",
	Long: `Initialize a new spacebio repository in the current directory.

Creates:
  .spacebio/
  ├── config.yml      # Default config
  └── cache/          # Embedding index cache (gitignored)
  .env                # GOOGLE_AI_API_KEY placeholder, unless one exists

Publications are read from data/publications.json and embeddings from
data/embeddings.json by default; change them with 'spacebio config set'.`,
	RunE: runInit,
}

// InitResponse is the response for the init command.
type InitResponse struct {
	Status     string `json:"status"`
	Path       string `json:"path"`
	EnvCreated bool   `json:"env_created"`
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getStartingDirectory()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	if env := os.Getenv(config.RootEnv); env != "" {
		root = config.ExpandPath(env)
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a spacebio repository")
	}

	if err := config.Default().Save(root); err != nil {
		exitWithError(ExitError, "creating %s: %v", config.ConfigFile, err)
	}
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	envCreated, err := config.WriteEnvTemplate(root)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized spacebio repository in %s\n", root)
		if envCreated {
			fmt.Printf("Add your API key to %s\n", config.EnvPath(root))
		}
	} else {
		outputJSON(InitResponse{
			Status:     "initialized",
			Path:       root,
			EnvCreated: envCreated,
		})
	}

	return nil
}
