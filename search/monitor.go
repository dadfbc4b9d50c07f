package search

import (
	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSimilaritySearch(hits []*core.SearchHit)
	AfterRerank(ranked []ai.RankedRecipe)
	RerankFallback(err error)
	Finish(hits []*core.SearchHit)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterSimilaritySearch(_ []*core.SearchHit) {}
func (n *noopMonitor) AfterRerank(_ []ai.RankedRecipe)           {}
func (n *noopMonitor) RerankFallback(_ error)                    {}
func (n *noopMonitor) Finish(_ []*core.SearchHit)                {}
