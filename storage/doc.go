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


// Package storage provides the storage abstraction layer for cookbook.
//
// This package defines repository interfaces that decouple storage implementation
// from business logic:
//
//   - RecipeRepository: the canonical, URL-deduplicated recipe store
//   - ChunkRepository: embedded index chunks and similarity search
//   - CheckpointRepository: resumable progress for maintenance jobs
//
// The badger subpackage implements all three on a single BadgerDB instance.
//
// # Deduplication
//
// A recipe is identified by its source URL and its position on the page.
// RecipeRepository.Upsert and RecipeRepository.MergeOwner run inside a single
// read-write transaction, so concurrent submissions of the same URL converge on
// one record whose owner and group sets are the union of every submitter.
//
// # Usage in tests
//
//	recipes, chunks, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
