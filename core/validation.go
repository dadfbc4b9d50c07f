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


package core

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateJob validates a Job before it enters the pipeline.
//
// Validation rules:
//   - URL must be an absolute http or https URL with a host
//   - RequesterID must be set
//
// GroupID is optional.
func ValidateJob(job *Job) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}

	if err := ValidateURL(job.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	if job.RequesterID == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrMissingRequester)
	}

	return nil
}

// ValidateURL checks that raw is something the fetcher can retrieve.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}
	return nil
}

// ValidateRecord validates a RecipeRecord before it is persisted.
//
// Validation rules:
//   - SourceURL must not be empty
//   - Position must not be negative
//   - at least one owner must be present
//
// Content fields are stored as extracted and are not validated.
func ValidateRecord(record *RecipeRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if record.SourceURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyURL)
	}
	if record.Position < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidRecord, record.Position)
	}
	if len(record.Owners) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMissingRequester)
	}
	return nil
}
