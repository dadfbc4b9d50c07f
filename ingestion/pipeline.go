package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/extract"
	"github.com/poiesic/cookbook/fetch"
	"github.com/poiesic/cookbook/metrics"
)

// Fetcher retrieves the raw page at a URL. *fetch.WebFetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// ContentExtractor reduces raw HTML to bounded plain text. *extract.ContentExtractor implements it.
type ContentExtractor interface {
	Text(rawHTML string) string
}

// state is a pipeline state. Done and Failed are terminal.
type state int

const (
	stateFetching state = iota
	stateExtracting
	stateParsing
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateFetching:
		return "fetch"
	case stateExtracting:
		return "extract"
	case stateParsing:
		return "parse"
	case stateDone:
		return "done"
	default:
		return "failed"
	}
}

// Outcome is the terminal result of one pipeline run.
type Outcome struct {
	Status core.Status
	// Recipes holds the extracted recipes in page order when Status is OK.
	Recipes []core.RecipeFields
	// Err is the failure behind a non-OK status, if any.
	Err error
}

// run carries the per-job data between states.
type run struct {
	job     *core.Job
	html    string
	text    string
	outcome *Outcome
}

// Pipeline fetches a page, reduces it to text, and extracts recipes from it.
// It holds no per-job state and is safe for concurrent use.
type Pipeline struct {
	fetcher   Fetcher
	content   ContentExtractor
	extractor ai.RecipeExtractor
	cpuPool   *ants.Pool
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline) error

// WithContentExtractor replaces the HTML to text step.
// Default is extract.New().
func WithContentExtractor(content ContentExtractor) PipelineOption {
	return func(p *Pipeline) error {
		if content != nil {
			p.content = content
		}
		return nil
	}
}

// WithExtractionPoolSize sets how many pages are reduced to text at once.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithExtractionPoolSize(size int) PipelineOption {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.cpuPool != nil {
			p.cpuPool.Release()
		}
		p.cpuPool = pool
		return nil
	}
}

// WithPipelineMetrics records per-stage durations.
func WithPipelineMetrics(m *metrics.Metrics) PipelineOption {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithPipelineLogger sets a custom logger.
// Default is slog.Default().
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "pipeline")
		return nil
	}
}

// NewPipeline creates an extraction pipeline.
func NewPipeline(fetcher Fetcher, extractor ai.RecipeExtractor, opts ...PipelineOption) (*Pipeline, error) {
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := max(runtime.NumCPU(), 1)
	cpuPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		fetcher:   fetcher,
		content:   extract.New(),
		extractor: extractor,
		cpuPool:   cpuPool,
		logger:    slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}
	return p, nil
}

// Run drives job from Fetching to Done or Failed and advances job.Stage as
// it goes. It never returns nil.
func (p *Pipeline) Run(ctx context.Context, job *core.Job) *Outcome {
	r := &run{job: job}
	logger := p.logger.With("job", job.ID, "url", job.URL)

	current := stateFetching
	for current != stateDone && current != stateFailed {
		started := time.Now()
		var next state
		switch current {
		case stateFetching:
			next = p.fetching(ctx, r)
		case stateExtracting:
			next = p.extracting(ctx, r)
		case stateParsing:
			next = p.parsing(ctx, r)
		}
		p.metrics.ObserveStage(current.String(), time.Since(started))
		logger.Debug("stage finished", "stage", current, "next", next, "elapsed", time.Since(started))
		current = next
	}

	if current == stateFailed {
		job.Stage = core.StageFailed
		logger.Warn("pipeline failed", "status", r.outcome.Status.Code, "err", r.outcome.Err)
	}
	return r.outcome
}

func (p *Pipeline) fail(r *run, status core.Status, err error) state {
	r.outcome = &Outcome{Status: status, Err: err}
	return stateFailed
}

func (p *Pipeline) fetching(ctx context.Context, r *run) state {
	html, err := p.fetcher.Fetch(ctx, r.job.URL)
	if err != nil {
		return p.fail(r, fetchStatus(err), err)
	}
	r.html = html
	r.job.Stage = core.StageFetched
	return stateExtracting
}

func (p *Pipeline) extracting(ctx context.Context, r *run) state {
	done := make(chan string, 1)
	if err := p.cpuPool.Submit(func() {
		done <- p.content.Text(r.html)
	}); err != nil {
		return p.fail(r, core.StatusServiceError("extraction pool unavailable"), err)
	}

	select {
	case text := <-done:
		r.text = text
	case <-ctx.Done():
		return p.fail(r, core.StatusServiceError("cancelled"), ctx.Err())
	}
	r.html = ""
	r.job.Stage = core.StageExtracted

	if r.text == "" {
		// Nothing for the model to read.
		r.outcome = &Outcome{Status: core.StatusNoRecipes()}
		return stateDone
	}
	return stateParsing
}

func (p *Pipeline) parsing(ctx context.Context, r *run) state {
	recipes, err := p.extractor.ExtractRecipes(ctx, r.text)
	if err != nil {
		var pe *ai.ParseError
		if errors.As(err, &pe) {
			return p.fail(r, core.StatusParseError(parseDetail(pe)), err)
		}
		return p.fail(r, core.StatusServiceError("model unavailable"), err)
	}
	r.job.Stage = core.StageParsed

	if len(recipes) == 0 {
		r.outcome = &Outcome{Status: core.StatusNoRecipes()}
		return stateDone
	}
	r.outcome = &Outcome{Status: core.StatusOK(), Recipes: recipes}
	return stateDone
}

// Release releases the extraction worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.cpuPool != nil {
		p.cpuPool.Release()
	}
}

// fetchStatus maps a fetch failure to its job status.
func fetchStatus(err error) core.Status {
	var fe *fetch.Error
	if errors.As(err, &fe) {
		switch fe.Kind {
		case fetch.KindHTTPStatus:
			return core.StatusForHTTP(fe.StatusCode)
		case fetch.KindTimeout:
			return core.StatusTimeout()
		}
	}
	return core.StatusServiceError("fetch failed")
}

func parseDetail(pe *ai.ParseError) string {
	if pe.Excerpt == "" {
		return pe.Reason
	}
	return pe.Reason + ": " + pe.Excerpt
}
