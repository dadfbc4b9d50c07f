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


package ingestion

import "errors"

var (
	// ErrRecipeRepositoryRequired is returned when a recipe repository is not provided.
	ErrRecipeRepositoryRequired = errors.New("recipe repository required")

	// ErrFetcherRequired is returned when a page fetcher is not provided.
	ErrFetcherRequired = errors.New("fetcher required")

	// ErrExtractorRequired is returned when a recipe extractor is not provided.
	ErrExtractorRequired = errors.New("recipe extractor required")

	// ErrPipelineRequired is returned when an extraction pipeline is not provided.
	ErrPipelineRequired = errors.New("pipeline required")

	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")
)
