package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRecipeRepositoryRequired is returned when no recipe repository is configured.
	ErrRecipeRepositoryRequired = errors.New("recipe repository is required")

	// ErrIndexerRequired is returned when no indexer is configured.
	ErrIndexerRequired = errors.New("indexer is required")

	// ErrInvalidConfig is returned when the configuration is unusable.
	ErrInvalidConfig = errors.New("invalid reindex config")
)
