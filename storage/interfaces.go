package storage

import (
	"context"

	"github.com/poiesic/cookbook/core"
)

// UpsertResult reports what an Upsert did.
type UpsertResult struct {
	// Created is true when the record did not exist and was inserted.
	Created bool
	// Record is the stored state after the call, including merged owners.
	Record *core.RecipeRecord
}

// RecipeRepository is the canonical, deduplicated store of recipes.
// Implementations must be thread-safe; Upsert and MergeOwner must be atomic
// with respect to concurrent callers for the same URL.
type RecipeRepository interface {
	// Upsert inserts the recipe at (sourceURL, position) with {ownerID} and
	// {groupID} if absent. If present, it merges ownerID and groupID into the
	// existing sets and leaves content untouched.
	Upsert(ctx context.Context, sourceURL string, position int, fields core.RecipeFields, ownerID, groupID int64) (*UpsertResult, error)

	// UpsertAll upserts every recipe of a page in one transaction, recipes[i]
	// at position i. A concurrent MergeOwner for sourceURL sees either none or
	// all of the page's records.
	UpsertAll(ctx context.Context, sourceURL string, recipes []core.RecipeFields, ownerID, groupID int64) ([]*UpsertResult, error)

	// MergeOwner merges ownerID and groupID into every record stored for
	// sourceURL. Returns the updated records, or an empty slice if the URL is unknown.
	MergeOwner(ctx context.Context, sourceURL string, ownerID, groupID int64) ([]*core.RecipeRecord, error)

	// FindByID retrieves a single record.
	// Returns ErrNotFound if the record doesn't exist.
	FindByID(ctx context.Context, id core.ID) (*core.RecipeRecord, error)

	// FindByURL retrieves every record stored for sourceURL, ordered by position.
	FindByURL(ctx context.Context, sourceURL string) ([]*core.RecipeRecord, error)

	// ListByOwner returns summaries of the records ownerID has submitted,
	// ordered by title, up to limit (0 means no limit).
	ListByOwner(ctx context.Context, ownerID int64, limit int) ([]core.RecipeSummary, error)

	// ListByGroup returns summaries of the records submitted from groupID.
	ListByGroup(ctx context.Context, groupID int64, limit int) ([]core.RecipeSummary, error)

	// ForEach visits records in ID order, starting after the given ID
	// (0 starts from the beginning), in batches of batchSize.
	// Iteration stops on the first error from fn.
	ForEach(ctx context.Context, after core.ID, batchSize int, fn func([]*core.RecipeRecord) error) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// ChunkRepository stores embedded index chunks and answers similarity queries.
type ChunkRepository interface {
	// ReplaceChunks atomically replaces every chunk of recordID with chunks.
	ReplaceChunks(ctx context.Context, recordID core.ID, chunks []*core.IndexChunk) error

	// DeleteChunks removes every chunk of recordID.
	DeleteChunks(ctx context.Context, recordID core.ID) error

	// ChunksFor returns the chunks of recordID ordered by sequence.
	ChunksFor(ctx context.Context, recordID core.ID) ([]*core.IndexChunk, error)

	// FindSimilar returns up to limit chunks ordered by cosine similarity to vector.
	FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchHit, error)

	// Close releases resources held by the repository.
	Close() error
}

// CheckpointRepository persists progress of long-running maintenance jobs.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, keyed by its Name.
	SaveCheckpoint(ctx context.Context, checkpoint *Checkpoint) error

	// LoadCheckpoint returns the checkpoint for name, or nil if none exists.
	LoadCheckpoint(ctx context.Context, name string) (*Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for name.
	ClearCheckpoint(ctx context.Context, name string) error
}
