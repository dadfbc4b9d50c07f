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


package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/storage"
)

// CheckpointName is the key under which reindex progress is stored.
const CheckpointName = "reindex"

// Indexer rebuilds the chunks of one record.
type Indexer interface {
	Index(ctx context.Context, record *core.RecipeRecord) error
}

// Config holds configuration for the reindex operation.
type Config struct {
	// BatchSize is the number of records read per storage transaction.
	BatchSize int

	// ReportInterval is how often progress is reported, in records.
	ReportInterval int

	// MaxRetries is the number of attempts per record.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// Restart ignores any saved checkpoint and starts from the first record.
	Restart bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: BatchSize must be positive", ErrInvalidConfig)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: MaxRetries must be positive", ErrInvalidConfig)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: RetryDelay cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Report summarizes a finished run.
type Report struct {
	Total     int
	Processed int
	Resumed   bool
	Elapsed   time.Duration
}

// Reindexer regenerates the chunks of every stored recipe.
type Reindexer struct {
	recipes     storage.RecipeRepository
	indexer     Indexer
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	logger      *slog.Logger
}

// NewReindexer creates a reindexer. checkpoints may be nil, in which case
// every run starts from the beginning. A nil config uses DefaultConfig and a
// nil progress writer discards progress output.
func NewReindexer(recipes storage.RecipeRepository, indexer Indexer, checkpoints storage.CheckpointRepository, config *Config, progress io.Writer) (*Reindexer, error) {
	if recipes == nil {
		return nil, ErrRecipeRepositoryRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Reindexer{
		recipes:     recipes,
		indexer:     indexer,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		logger:      slog.Default().With("component", "reindexer"),
	}, nil
}

// Run reindexes every record after the saved checkpoint, if any. A record
// that still fails after MaxRetries attempts stops the run; the checkpoint
// then points at the last fully indexed batch.
func (r *Reindexer) Run(ctx context.Context) (*Report, error) {
	total, err := r.recipes.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	report := &Report{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No recipes found in database (0 records)\n")
		return report, r.clearCheckpoint(ctx)
	}

	after, done, err := r.resumePoint(ctx)
	if err != nil {
		return nil, err
	}
	report.Resumed = after != 0
	if report.Resumed {
		fmt.Fprintf(r.progress, "Resuming reindex of %d recipes after %d already processed\n", total, done)
	} else {
		fmt.Fprintf(r.progress, "Starting reindex of %d recipes (batch size: %d)\n", total, r.config.BatchSize)
	}

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Resume(done)
	processed := done

	err = r.recipes.ForEach(ctx, after, r.config.BatchSize, func(batch []*core.RecipeRecord) error {
		for _, record := range batch {
			err := RetryWithBackoff(ctx, func() error {
				return r.indexer.Index(ctx, record)
			}, r.config.MaxRetries, r.config.RetryDelay)
			if err != nil {
				r.logger.Error("reindex failed", "record", record.ID, "url", record.SourceURL, "err", err)
				return fmt.Errorf("failed to reindex record %s: %w", record.ID, err)
			}
			processed++
			tracker.Increment(1)
		}
		return r.saveCheckpoint(ctx, batch[len(batch)-1].ID, processed)
	})
	if err != nil {
		return nil, err
	}

	tracker.Finish()
	report.Processed = processed
	report.Elapsed = tracker.Elapsed()

	fmt.Fprintf(r.progress, "Reindex complete. Processed %d recipes in %v\n",
		processed, report.Elapsed.Round(time.Millisecond))
	r.logger.Info("reindex complete", "processed", processed, "elapsed", report.Elapsed)
	return report, r.clearCheckpoint(ctx)
}

func (r *Reindexer) resumePoint(ctx context.Context) (core.ID, int, error) {
	if r.checkpoints == nil {
		return 0, 0, nil
	}
	if r.config.Restart {
		return 0, 0, r.clearCheckpoint(ctx)
	}
	checkpoint, err := r.checkpoints.LoadCheckpoint(ctx, CheckpointName)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return 0, 0, nil
	}
	r.logger.Debug("loaded checkpoint", "last_id", checkpoint.LastID, "processed", checkpoint.Processed)
	return checkpoint.LastID, checkpoint.Processed, nil
}

func (r *Reindexer) saveCheckpoint(ctx context.Context, lastID core.ID, processed int) error {
	if r.checkpoints == nil {
		return nil
	}
	err := r.checkpoints.SaveCheckpoint(ctx, &storage.Checkpoint{
		Name:      CheckpointName,
		LastID:    lastID,
		Processed: processed,
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

func (r *Reindexer) clearCheckpoint(ctx context.Context) error {
	if r.checkpoints == nil {
		return nil
	}
	if err := r.checkpoints.ClearCheckpoint(ctx, CheckpointName); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}
