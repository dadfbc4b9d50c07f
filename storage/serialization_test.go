package storage

import (
	"testing"
	"time"

	"github.com/poiesic/cookbook/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeCodec(t *testing.T) {
	record := core.NewRecipeRecord("https://example.com/soup", 0, core.RecipeFields{
		Title:    "Tomato Soup",
		Category: "soup",
		Ingredients: core.Ingredients{
			{Name: "tomato", Quantity: "4"},
			{Name: "salt", Quantity: "1 tsp"},
		},
		Steps: []string{"chop", "simmer"},
	}, 42, 7)
	record.InsertedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	record.UpdatedAt = record.InsertedAt

	data, err := MarshalRecipe(record)
	require.NoError(t, err)
	assert.Equal(t, codecVersion, data[0])

	decoded, err := UnmarshalRecipe(data)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestChunkCodec(t *testing.T) {
	chunk := &core.IndexChunk{
		ID:       core.ChunkID(5, 0),
		RecordID: 5,
		Text:     "title tomato soup",
		Metadata: core.ChunkMetadata{RecordID: core.ID(5).String(), Category: "soup", Ingredients: `{"tomato":"4"}`},
		Vector:   []float32{0.6, 0.8},
	}
	data, err := MarshalChunk(chunk)
	require.NoError(t, err)
	decoded, err := UnmarshalChunk(data)
	require.NoError(t, err)
	assert.Equal(t, chunk, decoded)
}

func TestUnmarshalErrors(t *testing.T) {
	_, err := UnmarshalRecipe(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)

	_, err = UnmarshalRecipe([]byte{99, '{', '}'})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalRecipe([]byte{codecVersion, '{'})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	_, err = UnmarshalID([]byte{1, 2})
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestIDCodecSortsByValue(t *testing.T) {
	a := MarshalID(1)
	b := MarshalID(256)
	assert.Less(t, string(a), string(b))

	id, err := UnmarshalID(b)
	require.NoError(t, err)
	assert.Equal(t, core.ID(256), id)
}
