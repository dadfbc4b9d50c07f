package ingestion

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/cookbook/ai/mock"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/index"
	"github.com/poiesic/cookbook/storage"
	"github.com/poiesic/cookbook/storage/badger"
	"github.com/stretchr/testify/require"
)

const soupURL = "https://example.com/soup-recipe"

const soupPage = `<html><head><title>Soup</title><script>var x = 1;</script></head>
<body><nav>Home | Recipes</nav>
<h1>Tomato Soup</h1>
<ul><li>4 tomatoes</li><li>1 tsp salt</li></ul>
<ol><li>Chop tomatoes</li><li>Simmer 20 minutes</li></ol>
<footer>Copyright</footer></body></html>`

// fetcherFunc adapts a function to Fetcher.
type fetcherFunc func(ctx context.Context, rawURL string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, rawURL string) (string, error) {
	return f(ctx, rawURL)
}

// staticFetcher serves soupPage for every URL and counts calls.
type staticFetcher struct {
	page  string
	calls atomic.Int64
}

func (f *staticFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	f.calls.Add(1)
	return f.page, nil
}

func tomatoSoupFields() core.RecipeFields {
	return core.RecipeFields{
		Title:       "Tomato Soup",
		Category:    "soup",
		Ingredients: core.Ingredients{{Name: "tomato", Quantity: "4 pcs"}, {Name: "salt", Quantity: "1 tsp"}},
		Steps:       []string{"Chop tomatoes", "Simmer 20 minutes"},
	}
}

// soupExtractor returns a mock extractor that always answers with Tomato Soup.
func soupExtractor() *mock.MockRecipeExtractor {
	m := mock.NewMockRecipeExtractor()
	m.ExtractRecipesFunc = func(ctx context.Context, text string) ([]core.RecipeFields, error) {
		return []core.RecipeFields{tomatoSoupFields()}, nil
	}
	return m
}

type env struct {
	recipes   storage.RecipeRepository
	chunks    storage.ChunkRepository
	backend   *badger.Backend
	fetcher   Fetcher
	extractor *mock.MockRecipeExtractor
	embedder  *mock.MockEmbedder
	pipeline  *Pipeline
	ingestor  *Ingestor
}

func setupEnv(t *testing.T, fetcher Fetcher, extractor *mock.MockRecipeExtractor, opts ...Option) *env {
	t.Helper()
	recipes, chunks, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewMockEmbedder()
	indexer, err := index.NewIndexer(chunks, embedder)
	require.NoError(t, err)

	pipeline, err := NewPipeline(fetcher, extractor, WithExtractionPoolSize(2))
	require.NoError(t, err)

	ingestor, err := NewIngestor(recipes, pipeline, indexer, opts...)
	require.NoError(t, err)
	t.Cleanup(ingestor.Release)

	return &env{
		recipes:   recipes,
		chunks:    chunks,
		backend:   backend,
		fetcher:   fetcher,
		extractor: extractor,
		embedder:  embedder,
		pipeline:  pipeline,
		ingestor:  ingestor,
	}
}

// longPage returns an HTML page with n paragraphs.
func longPage(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "<p>line %d</p>", i)
	}
	b.WriteString("</body></html>")
	return b.String()
}
