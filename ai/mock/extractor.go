package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/cookbook/core"
)

// MockRecipeExtractor is a test double for ai.RecipeExtractor.
type MockRecipeExtractor struct {
	// ExtractRecipesFunc is called by ExtractRecipes if set.
	// If nil, the first line becomes the title and the rest become steps.
	ExtractRecipesFunc func(ctx context.Context, text string) ([]core.RecipeFields, error)

	callCount atomic.Int64
}

// NewMockRecipeExtractor creates a new mock extractor with default behavior.
func NewMockRecipeExtractor() *MockRecipeExtractor {
	return &MockRecipeExtractor{}
}

// ExtractRecipes returns one recipe built from the lines of text.
func (m *MockRecipeExtractor) ExtractRecipes(ctx context.Context, text string) ([]core.RecipeFields, error) {
	m.callCount.Add(1)

	if m.ExtractRecipesFunc != nil {
		return m.ExtractRecipesFunc(ctx, text)
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return []core.RecipeFields{}, nil
	}
	steps := lines[1:]
	if len(steps) > 5 {
		steps = steps[:5]
	}
	return []core.RecipeFields{{
		Title:       lines[0],
		Category:    "main course",
		Ingredients: core.Ingredients{},
		Steps:       append([]string{}, steps...),
	}}, nil
}

// CallCount returns the number of extraction calls made.
func (m *MockRecipeExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and override.
func (m *MockRecipeExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractRecipesFunc = nil
}
