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


// Package ingestion turns submitted recipe URLs into stored, searchable records.
//
// A Pipeline runs one job through an explicit state machine:
//
//	Fetching -> Extracting -> Parsing -> Done
//	    |           |            |
//	    +-----------+------------+-----> Failed
//
// Every failure is mapped to a stable core.Status instead of surfacing as an
// error. The Ingestor wraps the pipeline with de-duplication: a URL that is
// already stored only gains the new submitter as an owner, and extraction is
// not repeated. Newly stored records are indexed for search; an indexing
// failure degrades the result but does not fail the job.
//
// Jobs run to completion even if the submitting caller goes away. Writes to
// the recipe store are atomic per recipe; there is no transaction spanning
// the stages.
package ingestion
