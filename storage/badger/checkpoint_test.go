package badger

import (
	"context"
	"testing"

	"github.com/poiesic/cookbook/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRepository(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewCheckpointRepository(backend)
	ctx := context.Background()

	missing, err := repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.SaveCheckpoint(ctx, &storage.Checkpoint{Name: "reindex", LastID: 99, Processed: 5}))

	loaded, err := repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.EqualValues(t, 99, loaded.LastID)
	assert.Equal(t, 5, loaded.Processed)
	assert.False(t, loaded.UpdatedAt.IsZero())

	require.NoError(t, repo.ClearCheckpoint(ctx, "reindex"))
	cleared, err := repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, cleared)
}
