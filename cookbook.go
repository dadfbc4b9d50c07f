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


// Package cookbook ingests recipes from web pages and answers semantic searches over them.
package cookbook

import (
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/ai/openai"
	"github.com/poiesic/cookbook/fetch"
	"github.com/poiesic/cookbook/index"
	"github.com/poiesic/cookbook/ingestion"
	"github.com/poiesic/cookbook/metrics"
	"github.com/poiesic/cookbook/reindex"
	"github.com/poiesic/cookbook/search"
	"github.com/poiesic/cookbook/storage"
	"github.com/poiesic/cookbook/storage/badger"
)

// Cookbook owns the storage backend and AI provider and builds the services
// that run on them.
type Cookbook struct {
	backend        *badger.Backend
	recipeRepo     storage.RecipeRepository
	chunkRepo      storage.ChunkRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.AIProvider
	fetchConfig    *fetch.Config
	indexOptions   []index.Option
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// Option configures a Cookbook.
type Option func(*options)

type options struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	fetchConfig  *fetch.Config
	indexOptions []index.Option
	metrics      *metrics.Metrics
	inMemory     bool
}

// WithAIConfig sets the model endpoints used to build the default provider.
func WithAIConfig(config *ai.Config) Option {
	return func(o *options) {
		o.aiConfig = config
	}
}

// WithProvider replaces the AI provider. The Cookbook takes ownership and
// closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithFetchConfig sets the web fetcher configuration.
func WithFetchConfig(config *fetch.Config) Option {
	return func(o *options) {
		o.fetchConfig = config
	}
}

// WithIndexOptions configures every indexer the Cookbook builds.
func WithIndexOptions(opts ...index.Option) Option {
	return func(o *options) {
		o.indexOptions = append(o.indexOptions, opts...)
	}
}

// WithMetrics records ingestion and search metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// InMemory keeps all data in memory; filePath is ignored.
func InMemory() Option {
	return func(o *options) {
		o.inMemory = true
	}
}

// Open opens or creates the cookbook stored at filePath.
func Open(filePath string, opts ...Option) (*Cookbook, error) {
	options := &options{
		aiConfig:    ai.DefaultConfig(),
		fetchConfig: fetch.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	recipeRepo, err := badger.NewRecipeRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		recipeRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			chunkRepo.Close()
			recipeRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Cookbook{
		backend:        backend,
		recipeRepo:     recipeRepo,
		chunkRepo:      chunkRepo,
		checkpointRepo: badger.NewCheckpointRepository(backend),
		provider:       provider,
		fetchConfig:    options.fetchConfig,
		indexOptions:   options.indexOptions,
		metrics:        options.metrics,
		logger:         slog.Default(),
	}, nil
}

// Close closes the provider, the repositories and the backend.
func (c *Cookbook) Close() error {
	var errs []error
	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := c.chunkRepo.Close(); err != nil {
		c.logger.Error("error closing chunk repository", "err", err)
		errs = append(errs, err)
	}
	if err := c.recipeRepo.Close(); err != nil {
		c.logger.Error("error closing recipe repository", "err", err)
		errs = append(errs, err)
	}
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Cookbook) RecipeRepository() storage.RecipeRepository {
	return c.recipeRepo
}

func (c *Cookbook) ChunkRepository() storage.ChunkRepository {
	return c.chunkRepo
}

func (c *Cookbook) CheckpointRepository() storage.CheckpointRepository {
	return c.checkpointRepo
}

func (c *Cookbook) Provider() ai.AIProvider {
	return c.provider
}

// NewIndexer builds an indexer on the chunk store.
func (c *Cookbook) NewIndexer(opts ...index.Option) (*index.Indexer, error) {
	return index.NewIndexer(c.chunkRepo, c.provider.Embedder(), slices.Concat(c.indexOptions, opts)...)
}

// NewPipeline builds the fetch and extract pipeline. A nil fetcher uses a
// WebFetcher with the configured fetch settings.
func (c *Cookbook) NewPipeline(fetcher ingestion.Fetcher, opts ...ingestion.PipelineOption) (*ingestion.Pipeline, error) {
	if fetcher == nil {
		web, err := fetch.NewWebFetcher(c.fetchConfig)
		if err != nil {
			return nil, err
		}
		fetcher = web
	}
	defaults := []ingestion.PipelineOption{ingestion.WithPipelineMetrics(c.metrics)}
	return ingestion.NewPipeline(fetcher, c.provider.RecipeExtractor(), slices.Concat(defaults, opts)...)
}

// NewIngestor builds an ingestor around pipeline. Releasing the ingestor
// releases the pipeline.
func (c *Cookbook) NewIngestor(pipeline *ingestion.Pipeline, opts ...ingestion.Option) (*ingestion.Ingestor, error) {
	indexer, err := c.NewIndexer()
	if err != nil {
		return nil, err
	}
	defaults := []ingestion.Option{ingestion.WithMetrics(c.metrics)}
	return ingestion.NewIngestor(c.recipeRepo, pipeline, indexer, slices.Concat(defaults, opts)...)
}

// NewSearcher builds a searcher on the chunk store.
func (c *Cookbook) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	defaults := []search.Option{search.WithMetrics(c.metrics)}
	return search.NewSearcher(c.chunkRepo, c.provider, slices.Concat(defaults, opts)...)
}

// NewReindexer builds a resumable reindexer writing progress to progress.
func (c *Cookbook) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	indexer, err := c.NewIndexer()
	if err != nil {
		return nil, err
	}
	return reindex.NewReindexer(c.recipeRepo, indexer, c.checkpointRepo, config, progress)
}
