package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/metrics"
	"github.com/poiesic/cookbook/storage"
)

// Indexer makes a stored record searchable. *index.Indexer implements it.
type Indexer interface {
	Index(ctx context.Context, record *core.RecipeRecord) error
}

// Result is the outcome of one processed job.
type Result struct {
	JobID  string
	URL    string
	Status core.Status
	// Records are the stored records for the URL, in page order.
	Records []*core.RecipeRecord
	// Created counts the records this job inserted; the rest were merges.
	Created int
	// Degraded is set when a record was stored but could not be indexed.
	Degraded bool
	Warnings []string
}

// Ingestor processes jobs against the recipe store.
type Ingestor struct {
	recipeRepository storage.RecipeRepository
	pipeline         *Pipeline
	indexer          Indexer
	notifier         Notifier
	jobPool          *ants.Pool
	metrics          *metrics.Metrics
	logger           *slog.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor) error

// WithPoolSize sets how many jobs Submit runs concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(in *Ingestor) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if in.jobPool != nil {
			in.jobPool.Release()
		}
		in.jobPool = pool
		return nil
	}
}

// WithNotifier sends every job result to the requester.
func WithNotifier(notifier Notifier) Option {
	return func(in *Ingestor) error {
		in.notifier = notifier
		return nil
	}
}

// WithMetrics records job and store counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(in *Ingestor) error {
		in.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(in *Ingestor) error {
		if logger == nil {
			logger = slog.Default()
		}
		in.logger = logger.With("component", "ingestor")
		return nil
	}
}

// NewIngestor creates an ingestor.
func NewIngestor(recipeRepository storage.RecipeRepository, pipeline *Pipeline, indexer Indexer, opts ...Option) (*Ingestor, error) {
	if recipeRepository == nil {
		return nil, ErrRecipeRepositoryRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	jobPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	in := &Ingestor{
		recipeRepository: recipeRepository,
		pipeline:         pipeline,
		indexer:          indexer,
		jobPool:          jobPool,
		logger:           slog.Default().With("component", "ingestor"),
	}

	for _, opt := range opts {
		if err := opt(in); err != nil {
			in.jobPool.Release()
			return nil, err
		}
	}
	return in, nil
}

// Process runs job to completion and returns its result.
// Cancelling ctx does not stop the job; values carried by ctx are kept.
func (in *Ingestor) Process(ctx context.Context, job *core.Job) *Result {
	ctx = context.WithoutCancel(ctx)
	started := time.Now()

	result := in.process(ctx, job)

	in.metrics.JobFinished(result.Status.Code)
	in.logger.Info("job finished",
		"job", result.JobID,
		"url", result.URL,
		"status", result.Status.Code,
		"records", len(result.Records),
		"created", result.Created,
		"degraded", result.Degraded,
		"elapsed", time.Since(started))

	if in.notifier != nil && job != nil {
		if err := in.notifier.Notify(ctx, newNotification(job, result)); err != nil {
			in.logger.Error("error sending notification", "job", job.ID, "err", err)
		}
	}
	return result
}

// Submit runs job on the worker pool and passes its result to callback.
// A nil callback discards the result.
func (in *Ingestor) Submit(job *core.Job, callback func(*Result)) error {
	return in.jobPool.Submit(func() {
		result := in.Process(context.Background(), job)
		if callback != nil {
			callback(result)
		}
	})
}

func (in *Ingestor) process(ctx context.Context, job *core.Job) *Result {
	if err := core.ValidateJob(job); err != nil {
		result := &Result{Status: core.StatusServiceError("invalid job")}
		if job != nil {
			job.Stage = core.StageFailed
			result.JobID, result.URL = job.ID, job.URL
		}
		in.logger.Warn("rejected invalid job", "err", err)
		return result
	}

	result := &Result{JobID: job.ID, URL: job.URL}
	logger := in.logger.With("job", job.ID, "url", job.URL)

	// Known URL: merge the submitter and skip extraction.
	merged, err := in.recipeRepository.MergeOwner(ctx, job.URL, job.RequesterID, job.GroupID)
	if err != nil {
		logger.Error("error merging owner", "err", err)
		result.Status = core.StatusServiceError("storage unavailable")
		return result
	}
	if len(merged) > 0 {
		for range merged {
			in.metrics.RecipeStored(false)
		}
		logger.Debug("url already stored, merged owner", "records", len(merged))
		result.Status = core.StatusOK()
		result.Records = merged
		return result
	}

	outcome := in.pipeline.Run(ctx, job)
	if !outcome.Status.OK() {
		result.Status = outcome.Status
		return result
	}

	// All positions are written together so a concurrent merge never sees
	// part of the page.
	storeStarted := time.Now()
	upserted, err := in.recipeRepository.UpsertAll(ctx, job.URL, outcome.Recipes, job.RequesterID, job.GroupID)
	in.metrics.ObserveStage("store", time.Since(storeStarted))
	if err != nil {
		logger.Error("error storing recipes", "recipes", len(outcome.Recipes), "err", err)
		result.Status = core.StatusServiceError("storage unavailable")
		return result
	}

	for _, u := range upserted {
		in.metrics.RecipeStored(u.Created)
		result.Records = append(result.Records, u.Record)
		if !u.Created {
			// Another job stored this recipe first and indexes it.
			continue
		}
		result.Created++

		indexStarted := time.Now()
		err := in.indexer.Index(ctx, u.Record)
		in.metrics.ObserveStage("index", time.Since(indexStarted))
		if err != nil {
			logger.Warn("recipe stored but not indexed", "record", u.Record.ID, "err", err)
			in.metrics.IndexFailed()
			result.Degraded = true
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%q is saved but will not appear in search results", u.Record.Title))
		}
	}

	result.Status = core.StatusOK()
	return result
}

// Shutdown stops accepting jobs and waits up to timeout for submitted jobs to
// finish, then releases the pipeline's worker pool. It returns
// ants.ErrTimeout if jobs were still running when timeout elapsed.
func (in *Ingestor) Shutdown(timeout time.Duration) error {
	err := in.jobPool.ReleaseTimeout(timeout)
	if errors.Is(err, ants.ErrTimeout) {
		in.logger.Warn("jobs still running at shutdown", "running", in.jobPool.Running(), "timeout", timeout)
	}
	in.pipeline.Release()
	if errors.Is(err, ants.ErrPoolClosed) {
		return nil
	}
	return err
}

// Release releases the job pool and the pipeline's worker pool without
// waiting for running jobs. The ingestor should not be used after calling Release.
func (in *Ingestor) Release() {
	if in.jobPool != nil {
		in.jobPool.Release()
	}
	if in.pipeline != nil {
		in.pipeline.Release()
	}
}
