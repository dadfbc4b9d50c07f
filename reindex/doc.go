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


// Package reindex regenerates the vector index for every stored recipe.
//
// A Reindexer walks the recipe store in ID order, batch by batch, and asks an
// Indexer to rebuild each record's chunks. Failed records are retried with
// exponential backoff. When a CheckpointRepository is supplied the position
// after each batch is persisted, so an interrupted run resumes where it
// stopped instead of starting over.
//
// Run it after changing the embedding model or the chunking parameters:
//
//	r := reindex.NewReindexer(recipes, indexer, checkpoints, nil, os.Stderr)
//	if err := r.Run(ctx); err != nil {
//		return err
//	}
package reindex
