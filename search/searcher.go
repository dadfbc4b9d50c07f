package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/metrics"
	"github.com/poiesic/cookbook/storage"
)

// DefaultTopK is the number of similarity hits used when the caller asks for none.
const DefaultTopK = 3

// errNoKnownIDs marks a re-rank answer that names none of the candidates.
var errNoKnownIDs = errors.New("re-ranker selected no known candidate")

// Searcher runs similarity search with LLM re-ranking over the chunk index.
type Searcher struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	reranker        ai.Reranker
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithMetrics records search outcomes and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Searcher) error {
		s.metrics = m
		return nil
	}
}

// WithoutRerank skips the re-ranking stage and returns raw similarity hits.
func WithoutRerank() Option {
	return func(s *Searcher) error {
		s.reranker = nil
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chunkRepository storage.ChunkRepository, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunkRepository: chunkRepository,
		embedder:        provider.Embedder(),
		reranker:        provider.Reranker(),
		logger:          slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search returns the recipes matching query.
// topK bounds the similarity candidates; zero or less means DefaultTopK.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]*core.SearchHit, error) {
	return s.SearchWithMonitor(ctx, query, topK, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, topK int, monitor SearchMonitor) ([]*core.SearchHit, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	started := time.Now()
	monitor.Start(query)

	// 1. Similarity search
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		s.metrics.SearchFinished(metrics.SearchFailed, time.Since(started))
		return nil, err
	}

	hits, err := s.chunkRepository.FindSimilar(ctx, embedding, topK)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		s.metrics.SearchFinished(metrics.SearchFailed, time.Since(started))
		return nil, err
	}
	monitor.AfterSimilaritySearch(hits)

	if len(hits) == 0 {
		monitor.Finish(hits)
		s.metrics.SearchFinished(metrics.SearchEmpty, time.Since(started))
		return []*core.SearchHit{}, nil
	}
	if s.reranker == nil {
		monitor.Finish(hits)
		s.metrics.SearchFinished(metrics.SearchFallback, time.Since(started))
		return hits, nil
	}

	// 2. Re-rank
	ranked, err := s.reranker.Rerank(ctx, query, BuildContext(hits))
	if err == nil {
		monitor.AfterRerank(ranked)
		var results []*core.SearchHit
		if results, err = applyRanking(hits, ranked); err == nil {
			monitor.Finish(results)
			s.metrics.SearchFinished(metrics.SearchReranked, time.Since(started))
			return results, nil
		}
	}

	s.logger.Warn("re-ranking failed, returning similarity hits", "query", query, "err", err)
	monitor.RerankFallback(err)
	monitor.Finish(hits)
	s.metrics.SearchFinished(metrics.SearchFallback, time.Since(started))
	return hits, nil
}

// applyRanking keeps the best hit of every selected record, in the order the
// re-ranker chose, labeled with its category. Unknown and repeated ids are
// dropped. An empty selection is a valid answer; a selection naming only
// unknown ids is not.
func applyRanking(hits []*core.SearchHit, ranked []ai.RankedRecipe) ([]*core.SearchHit, error) {
	// hits arrive best first, so the first hit per record is its best.
	best := make(map[string]*core.SearchHit, len(hits))
	for _, hit := range hits {
		id := hit.Chunk.Metadata.RecordID
		if _, ok := best[id]; !ok {
			best[id] = hit
		}
	}

	results := make([]*core.SearchHit, 0, len(ranked))
	seen := make(map[string]bool, len(ranked))
	for _, r := range ranked {
		id := strings.ToLower(r.ID)
		hit, ok := best[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true

		labeled := *hit
		labeled.Label = r.Category
		if labeled.Label == "" {
			labeled.Label = hit.Chunk.Metadata.Category
		}
		results = append(results, &labeled)
	}

	if len(ranked) > 0 && len(results) == 0 {
		return nil, errNoKnownIDs
	}
	return results, nil
}
