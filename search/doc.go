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


// Package search answers free-text recipe queries.
//
// The Searcher runs two stages:
//   - Similarity search: the query is embedded and the closest index chunks
//     are retrieved by cosine similarity
//   - Re-ranking: the candidates and the query go to a language model that
//     selects and labels the ones that actually answer the query
//
// A similarity failure is returned to the caller. A re-ranking failure is
// not: the raw similarity hits are returned instead and the fallback is
// reported through the SearchMonitor and metrics.
package search
