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


// Package mock provides test doubles for the ai package interfaces.
//
// Every mock has a default behavior that needs no setup and a Func field to
// override it per test:
//
//	extractor := mock.NewMockRecipeExtractor()
//	extractor.ExtractRecipesFunc = func(ctx context.Context, text string) ([]core.RecipeFields, error) {
//	    return nil, ai.NewParseError("garbage", "invalid JSON", nil)
//	}
//	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), extractor, mock.NewMockReranker())
//
// Call counts are safe to read while the mocks are used from several goroutines.
package mock
