// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// RecipeExtractor implements ai.RecipeExtractor using OpenAI-compatible chat APIs.
type RecipeExtractor struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

var _ ai.RecipeExtractor = (*RecipeExtractor)(nil)

// newChatModel creates the chat client shared by the extractor and re-ranker.
func newChatModel(config *ai.Config) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.ChatModel),
	)
}

// newRecipeExtractor is an internal constructor that returns the concrete type.
func newRecipeExtractor(client llms.Model, temperature float64) *RecipeExtractor {
	return &RecipeExtractor{
		client:      client,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-extractor"),
	}
}

// NewRecipeExtractor creates a new recipe extractor using the provided configuration.
//
// Returns ai.RecipeExtractor interface to enforce abstraction.
func NewRecipeExtractor(config *ai.Config) (ai.RecipeExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newChatModel(config)
	if err != nil {
		return nil, err
	}
	return newRecipeExtractor(client, config.Temperature), nil
}

// ExtractRecipes asks the model for every recipe in text with a single call.
func (e *RecipeExtractor) ExtractRecipes(ctx context.Context, text string) ([]core.RecipeFields, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, buildExtractionPrompt(text)),
	}

	raw, err := generate(ctx, e.client, content, e.temperature)
	if err != nil {
		e.logger.Error("failed to generate content", "err", err)
		return nil, fmt.Errorf("recipe extraction: %w", err)
	}

	recipes, err := parseRecipes(raw)
	if err != nil {
		e.logger.Warn("error parsing extraction response", "response", ai.Excerpt(raw), "err", err)
		return nil, err
	}

	e.logger.Debug("extracted recipes", "count", len(recipes))
	return recipes, nil
}

// generate performs one JSON-mode completion and returns the first choice.
// A response without choices is returned as empty text.
func generate(ctx context.Context, client llms.Model, content []llms.MessageContent, temperature float64) (string, error) {
	response, err := client.GenerateContent(ctx, content,
		llms.WithTemperature(temperature),
		llms.WithJSONMode())
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", nil
	}
	return response.Choices[0].Content, nil
}
