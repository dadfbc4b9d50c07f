package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func TestVector(t *testing.T) {
	soup := Vector("tomato soup with salt")
	query := Vector("Tomato Soup")
	cake := Vector("chocolate cake frosting")

	assert.Len(t, soup, Dimensions)
	assert.InDelta(t, 1.0, dot(soup, soup), 1e-5)
	assert.Greater(t, dot(soup, query), dot(cake, query))
	assert.Equal(t, soup, Vector("tomato soup with salt"))
	assert.Equal(t, make([]float32, Dimensions), Vector(""))
}

func TestMockEmbedder_ConcurrentCalls(t *testing.T) {
	m := NewMockEmbedder()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.EmbedText(context.Background(), "x")
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.CallCount())

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
}

func TestMockRecipeExtractor_Default(t *testing.T) {
	m := NewMockRecipeExtractor()

	recipes, err := m.ExtractRecipes(context.Background(), "Pancakes\nMix\nFry")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Pancakes", recipes[0].Title)
	assert.Equal(t, []string{"Mix", "Fry"}, recipes[0].Steps)

	recipes, err = m.ExtractRecipes(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, recipes)
	assert.Equal(t, 2, m.CallCount())
}

func TestMockReranker_Default(t *testing.T) {
	m := NewMockReranker()
	block := "id: aa\ncategory: soup\ntext: tomato\n\nid: bb\ncategory: dessert\n"

	ranked, err := m.Rerank(context.Background(), "q", block)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "aa", ranked[0].ID)
	assert.Equal(t, "soup", ranked[0].Category)
	assert.Equal(t, "bb", ranked[1].ID)
	assert.Equal(t, "dessert", ranked[1].Category)
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)
	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.Same(t, p.GetMockExtractor(), p.RecipeExtractor())
	assert.Same(t, p.GetMockReranker(), p.Reranker())
	assert.NoError(t, p.Close())
}
