package index

import "errors"

var (
	// ErrIndexingFailure wraps every failure to embed or store a record's chunks.
	ErrIndexingFailure = errors.New("indexing failed")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidChunking is returned for unusable chunk size or overlap settings.
	ErrInvalidChunking = errors.New("invalid chunk size or overlap")
)
