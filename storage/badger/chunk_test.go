package badger

import (
	"context"
	"testing"

	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunkRepo(t *testing.T) *ChunkRepository {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	repo, err := NewChunkRepository(backend)
	require.NoError(t, err)
	return repo
}

func makeChunks(recordID core.ID, vectors ...[]float32) []*core.IndexChunk {
	chunks := make([]*core.IndexChunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = &core.IndexChunk{
			ID:       core.ChunkID(recordID, i),
			RecordID: recordID,
			Seq:      i,
			Text:     "chunk",
			Metadata: core.ChunkMetadata{RecordID: recordID.String(), Category: "soup"},
			Vector:   v,
		}
	}
	return chunks
}

func TestFindSimilar_NoChunks(t *testing.T) {
	repo := newTestChunkRepo(t)
	results, err := repo.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFindSimilar_Ranking(t *testing.T) {
	repo := newTestChunkRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceChunks(ctx, 1, makeChunks(1, []float32{1, 0, 0})))
	require.NoError(t, repo.ReplaceChunks(ctx, 2, makeChunks(2, []float32{0.7, 0.7, 0})))
	require.NoError(t, repo.ReplaceChunks(ctx, 3, makeChunks(3, []float32{0, 0, 1}, nil)))

	results, err := repo.FindSimilar(ctx, []float32{2, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, core.ID(1), results[0].Chunk.RecordID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, core.ID(2), results[1].Chunk.RecordID)
	assert.InDelta(t, 0.7071, results[1].Score, 1e-3)

	_, err = repo.FindSimilar(ctx, []float32{1}, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestReplaceChunks(t *testing.T) {
	repo := newTestChunkRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceChunks(ctx, 1, makeChunks(1, []float32{1}, []float32{1}, []float32{1})))
	chunks, err := repo.ChunksFor(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)

	require.NoError(t, repo.ReplaceChunks(ctx, 1, makeChunks(1, []float32{0.5})))
	chunks, err = repo.ChunksFor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{0.5}, chunks[0].Vector)

	t.Run("rejects foreign chunks", func(t *testing.T) {
		err := repo.ReplaceChunks(ctx, 1, makeChunks(2, []float32{1}))
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteChunks(ctx, 1))
		chunks, err := repo.ChunksFor(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, float32(0), cosineSimilarity(nil, []float32{1}))
}
