package main

import (
	"errors"

	"github.com/matsen/spacebio/internal/dataset"
	"github.com/matsen/spacebio/internal/embedding"
	"github.com/matsen/spacebio/internal/graph"
	"github.com/matsen/spacebio/internal/publication"
	"github.com/matsen/spacebio/internal/semantic"
	"github.com/matsen/spacebio/internal/storage"
)

// Exit codes
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error (missing repository, config, embeddings or API key)
	ExitDataError     = 3 // Data error (malformed publications or embeddings)
	ExitNotFound      = 4 // Publication or graph node not found
	ExitProviderError = 5 // Embedding provider failed or timed out
	ExitIndexStale    = 6 // Embedding index does not cover every publication
)

// exitCodeFor maps an error from the internal packages to an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, semantic.ErrIndexNotFound),
		errors.Is(err, semantic.ErrNoProvider),
		errors.Is(err, embedding.ErrMissingAPIKey),
		errors.Is(err, storage.ErrPublicationsNotFound):
		return ExitConfigError
	case embedding.IsProviderError(err):
		return ExitProviderError
	case semantic.IsConfigurationError(err),
		errors.Is(err, dataset.ErrNoPublications),
		errors.Is(err, publication.ErrEmptyTitle),
		errors.Is(err, publication.ErrNegativeID),
		errors.Is(err, publication.ErrDuplicateID),
		errors.Is(err, graph.ErrEmptyGraph):
		return ExitDataError
	case errors.Is(err, graph.ErrNodeNotFound),
		errors.Is(err, semantic.ErrPublicationNotIndexed):
		return ExitNotFound
	}
	return ExitError
}
