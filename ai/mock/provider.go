package mock

import "github.com/poiesic/cookbook/ai"

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	embedder  *MockEmbedder
	extractor *MockRecipeExtractor
	reranker  *MockReranker
}

// NewMockProvider creates a provider whose services use default mock behavior.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockRecipeExtractor(), NewMockReranker())
}

// NewMockProviderWithServices creates a provider from preconfigured mocks.
func NewMockProviderWithServices(embedder *MockEmbedder, extractor *MockRecipeExtractor, reranker *MockReranker) ai.AIProvider {
	return &MockProvider{
		embedder:  embedder,
		extractor: extractor,
		reranker:  reranker,
	}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) RecipeExtractor() ai.RecipeExtractor {
	return p.extractor
}

func (p *MockProvider) Reranker() ai.Reranker {
	return p.reranker
}

func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the concrete embedder for assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExtractor returns the concrete extractor for assertions.
func (p *MockProvider) GetMockExtractor() *MockRecipeExtractor {
	return p.extractor
}

// GetMockReranker returns the concrete re-ranker for assertions.
func (p *MockProvider) GetMockReranker() *MockReranker {
	return p.reranker
}
