package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/cookbook/ai"
	"github.com/tmc/langchaingo/llms"
)

// Reranker implements ai.Reranker using OpenAI-compatible chat APIs.
type Reranker struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

var _ ai.Reranker = (*Reranker)(nil)

func newReranker(client llms.Model, temperature float64) *Reranker {
	return &Reranker{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-reranker"),
	}
}

// NewReranker creates a new re-ranker using the provided configuration.
func NewReranker(config *ai.Config) (ai.Reranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newReranker(client, config.Temperature), nil
}

// Rerank asks the model which of the candidate recipes answer query.
func (r *Reranker) Rerank(ctx context.Context, query, contextBlock string) ([]ai.RankedRecipe, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildRerankPrompt(query, contextBlock)),
	}

	raw, err := generate(ctx, r.client, content, r.temperature)
	if err != nil {
		r.logger.Error("failed to generate content", "err", err)
		return nil, fmt.Errorf("rerank: %w", err)
	}

	ranked, err := parseRanking(raw)
	if err != nil {
		r.logger.Warn("error parsing rerank response", "response", ai.Excerpt(raw), "err", err)
		return nil, err
	}
	r.logger.Debug("reranked recipes", "query", query, "selected", len(ranked))
	return ranked, nil
}
