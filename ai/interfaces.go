package ai

import (
	"context"

	"github.com/poiesic/cookbook/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RecipeExtractor pulls structured recipes out of page text.
// Implementations must be thread-safe for concurrent use.
type RecipeExtractor interface {
	// ExtractRecipes asks the model for every recipe in text. It makes exactly
	// one model call. A structurally invalid model response is reported as a
	// *ParseError (errors.Is(err, ErrParseFailure)); any other error means the
	// model could not be reached. An empty slice means the page has no recipe.
	ExtractRecipes(ctx context.Context, text string) ([]core.RecipeFields, error)
}

// RankedRecipe is one entry of a re-ranked search answer.
type RankedRecipe struct {
	// ID is the record ID (hex) the model selected.
	ID string
	// Category is the dish type the model assigned.
	Category string
}

// Reranker filters and orders similarity hits against the user's query.
type Reranker interface {
	// Rerank returns the recipes from contextBlock that answer query, best first.
	// Malformed model output is a *ParseError.
	Rerank(ctx context.Context, query, contextBlock string) ([]RankedRecipe, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// RecipeExtractor returns the structured extraction service.
	RecipeExtractor() RecipeExtractor

	// Reranker returns the search re-ranking service.
	Reranker() Reranker

	// Close releases resources held by the provider and its services.
	Close() error
}
