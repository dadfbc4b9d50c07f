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


// Package ai provides abstractions for the AI services used by the cookbook.
//
// This package defines interfaces for AI operations including text embeddings,
// structured recipe extraction, and search re-ranking. The ingestion and search
// packages depend on these abstractions rather than on a particular provider.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - RecipeExtractor: Turns page text into structured recipes
//   - Reranker: Filters and orders search candidates for a query
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can set behavior and read call counts.
//
// # Model Output
//
// Language models do not reliably return well-formed JSON. Implementations
// report a response with the wrong shape as a *ParseError, which callers
// detect with errors.Is(err, ErrParseFailure). Any other error means the
// service itself failed.
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	recipes, err := provider.RecipeExtractor().ExtractRecipes(ctx, pageText)
//	var pe *ai.ParseError
//	if errors.As(err, &pe) {
//	    log.Printf("model answered with %q", pe.Excerpt)
//	}
package ai
