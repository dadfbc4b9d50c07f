package mock

import (
	"bufio"
	"context"
	"strings"
	"sync/atomic"

	"github.com/poiesic/cookbook/ai"
)

// MockReranker is a test double for ai.Reranker.
type MockReranker struct {
	// RerankFunc is called by Rerank if set.
	// If nil, every "id:" line of the context block is returned in order.
	RerankFunc func(ctx context.Context, query, contextBlock string) ([]ai.RankedRecipe, error)

	callCount atomic.Int64
}

// NewMockReranker creates a new mock re-ranker with default behavior.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Rerank keeps the candidates in their given order.
func (m *MockReranker) Rerank(ctx context.Context, query, contextBlock string) ([]ai.RankedRecipe, error) {
	m.callCount.Add(1)

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, contextBlock)
	}

	var ranked []ai.RankedRecipe
	var current *ai.RankedRecipe
	scanner := bufio.NewScanner(strings.NewReader(contextBlock))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "id:"):
			ranked = append(ranked, ai.RankedRecipe{ID: strings.TrimSpace(strings.TrimPrefix(line, "id:"))})
			current = &ranked[len(ranked)-1]
		case strings.HasPrefix(line, "category:") && current != nil:
			current.Category = strings.TrimSpace(strings.TrimPrefix(line, "category:"))
		}
	}
	return ranked, nil
}

// CallCount returns the number of re-rank calls made.
func (m *MockReranker) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and override.
func (m *MockReranker) Reset() {
	m.callCount.Store(0)
	m.RerankFunc = nil
}
