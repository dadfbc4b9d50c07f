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

import "errors"

// Domain validation errors
var (
	// ErrInvalidJob indicates a Job failed validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrEmptyURL indicates the job URL is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrUnsupportedURL indicates the URL is not an absolute http(s) URL.
	ErrUnsupportedURL = errors.New("url must be an absolute http or https url")

	// ErrMissingRequester indicates the job carries no requester.
	ErrMissingRequester = errors.New("requester id is required")

	// ErrInvalidRecord indicates a RecipeRecord failed validation.
	ErrInvalidRecord = errors.New("invalid recipe record")

	// ErrInvalidID indicates an ID string could not be parsed.
	ErrInvalidID = errors.New("invalid id")
)
