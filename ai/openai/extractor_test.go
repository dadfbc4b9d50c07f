package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/cookbook/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomatoSoupResponse = `{"recipes":[{"title":"Tomato Soup","ingredients":{"tomato":"4 pcs","salt":"1 tsp"},"description":["Chop tomatoes","Simmer 20 minutes"],"category":"soup"}]}`

func TestRecipeExtractor_ExtractRecipes(t *testing.T) {
	model := &fakeModel{response: tomatoSoupResponse}
	extractor := newRecipeExtractor(model, 0.1)

	recipes, err := extractor.ExtractRecipes(context.Background(), "Tomato Soup\n4 tomatoes\n1 tsp salt")
	require.NoError(t, err)
	require.Len(t, recipes, 1)

	assert.Equal(t, "Tomato Soup", recipes[0].Title)
	assert.Equal(t, "soup", recipes[0].Category)
	assert.Equal(t, []string{"Chop tomatoes", "Simmer 20 minutes"}, recipes[0].Steps)
	qty, ok := recipes[0].Ingredients.Get("tomato")
	assert.True(t, ok)
	assert.Equal(t, "4 pcs", qty)

	assert.Equal(t, 1, model.calls)
	assert.True(t, model.options.JSONMode)
	assert.InDelta(t, 0.1, model.options.Temperature, 1e-9)
	assert.Contains(t, model.humanText(), "4 tomatoes")
	assert.Contains(t, model.humanText(), `"recipes"`)
}

func TestRecipeExtractor_MalformedResponse(t *testing.T) {
	model := &fakeModel{response: "Sure! Here is the recipe you asked for."}
	extractor := newRecipeExtractor(model, 0)

	recipes, err := extractor.ExtractRecipes(context.Background(), "text")
	require.Error(t, err)
	assert.Nil(t, recipes)
	assert.ErrorIs(t, err, ai.ErrParseFailure)

	var pe *ai.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Sure! Here is the recipe you asked for.", pe.Excerpt)

	// Parse failures are not retried.
	assert.Equal(t, 1, model.calls)
}

func TestRecipeExtractor_ModelFailure(t *testing.T) {
	boom := errors.New("connection refused")
	model := &fakeModel{err: boom}
	extractor := newRecipeExtractor(model, 0)

	_, err := extractor.ExtractRecipes(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ai.ErrParseFailure)
}

func TestRecipeExtractor_NoRecipes(t *testing.T) {
	model := &fakeModel{response: `{"recipes": []}`}
	extractor := newRecipeExtractor(model, 0)

	recipes, err := extractor.ExtractRecipes(context.Background(), "a page about gardening")
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestReranker_Rerank(t *testing.T) {
	model := &fakeModel{response: "```json\n{\"recipes\":[{\"id\":\"00000000000000aa\",\"category\":\"soup\"}]}\n```"}
	reranker := newReranker(model, 0.1)

	ranked, err := reranker.Rerank(context.Background(), "tomato soup", "id: 00000000000000aa\ntomato soup")
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "00000000000000aa", ranked[0].ID)
	assert.Equal(t, "soup", ranked[0].Category)

	human := model.humanText()
	assert.Contains(t, human, "tomato soup")
	assert.Contains(t, human, "id: 00000000000000aa")
}

func TestReranker_Malformed(t *testing.T) {
	model := &fakeModel{response: `{"recipes": "none"}`}
	reranker := newReranker(model, 0)

	_, err := reranker.Rerank(context.Background(), "q", "ctx")
	assert.ErrorIs(t, err, ai.ErrParseFailure)
}

func TestNewProvider(t *testing.T) {
	provider, err := NewProvider(ai.DefaultConfig())
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Embedder())
	assert.NotNil(t, provider.RecipeExtractor())
	assert.NotNil(t, provider.Reranker())
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.DefaultConfig()
	cfg.ChatModel = ""
	_, err := NewProvider(cfg)
	assert.Error(t, err)
}
