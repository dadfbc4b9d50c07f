package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Similarity search is a brute-force scan over every stored chunk.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	if backend == nil {
		return nil, errors.New("badger: backend required")
	}
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// ReplaceChunks removes the record's existing chunks and writes chunks in one transaction.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, recordID core.ID, chunks []*core.IndexChunk) error {
	for _, chunk := range chunks {
		if chunk.RecordID != recordID {
			return fmt.Errorf("%w: chunk %s belongs to record %s, not %s",
				storage.ErrInvalidQuery, chunk.ID, chunk.RecordID, recordID)
		}
	}

	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		if err := deleteChunks(tx, recordID); err != nil {
			return err
		}
		for _, chunk := range chunks {
			value, err := storage.MarshalChunk(chunk)
			if err != nil {
				return err
			}
			if err := tx.Set(makeChunkKey(recordID, chunk.Seq), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteChunks removes every chunk of recordID.
func (r *ChunkRepository) DeleteChunks(ctx context.Context, recordID core.ID) error {
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		return deleteChunks(tx, recordID)
	})
}

// ChunksFor returns the chunks of recordID ordered by sequence.
func (r *ChunkRepository) ChunksFor(ctx context.Context, recordID core.ID) ([]*core.IndexChunk, error) {
	var chunks []*core.IndexChunk
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkKey(recordID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunk, err := readChunk(iter.Item())
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk)
		}
		return nil
	})
	return chunks, err
}

// FindSimilar returns up to limit chunks ordered by cosine similarity to vector.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SearchHit, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.SearchHit
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk, err := readChunk(iter.Item())
			if err != nil {
				return err
			}

			// Skip chunks without embeddings
			if len(chunk.Vector) == 0 {
				continue
			}

			results = append(results, &core.SearchHit{
				Chunk: chunk,
				Score: cosineSimilarity(vector, chunk.Vector),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortStableFunc(results, func(a, b *core.SearchHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func deleteChunks(tx *badger.Txn, recordID core.ID) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = makePartialChunkKey(recordID)
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

func readChunk(item *badger.Item) (*core.IndexChunk, error) {
	var chunk *core.IndexChunk
	err := item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}

// cosineSimilarity calculates the cosine of the angle between two vectors.
// Vectors of different length are compared over their common prefix.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
