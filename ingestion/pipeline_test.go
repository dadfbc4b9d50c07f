package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/ai/mock"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/extract"
	"github.com/poiesic/cookbook/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, fetcher Fetcher, extractor ai.RecipeExtractor, opts ...PipelineOption) *Pipeline {
	t.Helper()
	p, err := NewPipeline(fetcher, extractor, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipeline(t *testing.T) {
	fetcher := &staticFetcher{page: soupPage}
	extractor := mock.NewMockRecipeExtractor()

	t.Run("valid configuration", func(t *testing.T) {
		p, err := NewPipeline(fetcher, extractor, WithExtractionPoolSize(0), WithPipelineLogger(nil))
		require.NoError(t, err)
		p.Release()
	})

	t.Run("nil fetcher", func(t *testing.T) {
		_, err := NewPipeline(nil, extractor)
		assert.Equal(t, ErrFetcherRequired, err)
	})

	t.Run("nil extractor", func(t *testing.T) {
		_, err := NewPipeline(fetcher, nil)
		assert.Equal(t, ErrExtractorRequired, err)
	})
}

func TestPipeline_TomatoSoup(t *testing.T) {
	fetcher := &staticFetcher{page: soupPage}
	extractor := soupExtractor()
	var seen string
	extractor.ExtractRecipesFunc = func(ctx context.Context, text string) ([]core.RecipeFields, error) {
		seen = text
		return []core.RecipeFields{tomatoSoupFields()}, nil
	}
	p := newTestPipeline(t, fetcher, extractor)

	job := core.NewJob(soupURL, 1, 10)
	outcome := p.Run(context.Background(), job)

	require.True(t, outcome.Status.OK(), outcome.Status.String())
	require.Len(t, outcome.Recipes, 1)
	assert.Equal(t, tomatoSoupFields(), outcome.Recipes[0])
	assert.Equal(t, core.StageParsed, job.Stage)
	assert.NoError(t, outcome.Err)

	assert.Contains(t, seen, "Tomato Soup")
	assert.Contains(t, seen, "Simmer 20 minutes")
	assert.NotContains(t, seen, "var x")
	assert.NotContains(t, seen, "Copyright")
}

func TestPipeline_FetchFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code core.StatusCode
		text string
	}{
		{"not found", &fetch.Error{Kind: fetch.KindHTTPStatus, StatusCode: 404, URL: soupURL}, core.CodeNotFound, "page not found"},
		{"unauthorized", &fetch.Error{Kind: fetch.KindHTTPStatus, StatusCode: 401, URL: soupURL}, core.CodeAccessDenied, "access denied"},
		{"forbidden", &fetch.Error{Kind: fetch.KindHTTPStatus, StatusCode: 403, URL: soupURL}, core.CodeAccessDenied, "access denied"},
		{"server error", &fetch.Error{Kind: fetch.KindHTTPStatus, StatusCode: 500, URL: soupURL}, core.CodeServerError, "server error 500"},
		{"gone", &fetch.Error{Kind: fetch.KindHTTPStatus, StatusCode: 410, URL: soupURL}, core.CodeServerError, "server error 410"},
		{"transport", &fetch.Error{Kind: fetch.KindTransport, URL: soupURL, Err: errors.New("dns")}, core.CodeServiceError, "service error"},
		{"timeout", &fetch.Error{Kind: fetch.KindTimeout, URL: soupURL, Attempts: 3}, core.CodeTimeout, "fetch timeout"},
		{"unclassified", errors.New("boom"), core.CodeServiceError, "service error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := soupExtractor()
			p := newTestPipeline(t, fetcherFunc(func(ctx context.Context, rawURL string) (string, error) {
				return "", tt.err
			}), extractor)

			job := core.NewJob(soupURL, 1, 0)
			outcome := p.Run(context.Background(), job)

			assert.Equal(t, tt.code, outcome.Status.Code)
			assert.Equal(t, tt.text, outcome.Status.String())
			assert.ErrorIs(t, outcome.Err, tt.err)
			assert.Empty(t, outcome.Recipes)
			assert.Equal(t, core.StageFailed, job.Stage)
			assert.Equal(t, 0, extractor.CallCount())
		})
	}
}

func TestPipeline_MalformedModelOutput(t *testing.T) {
	extractor := mock.NewMockRecipeExtractor()
	extractor.ExtractRecipesFunc = func(ctx context.Context, text string) ([]core.RecipeFields, error) {
		return nil, ai.NewParseError("Sure! Here you go", "invalid JSON", nil)
	}
	p := newTestPipeline(t, &staticFetcher{page: soupPage}, extractor)

	job := core.NewJob(soupURL, 1, 0)
	outcome := p.Run(context.Background(), job)

	assert.Equal(t, core.CodeParseError, outcome.Status.Code)
	assert.Equal(t, "parse error invalid JSON: Sure! Here you go", outcome.Status.String())
	assert.ErrorIs(t, outcome.Err, ai.ErrParseFailure)
	assert.Equal(t, core.StageFailed, job.Stage)
}

func TestPipeline_ModelUnavailable(t *testing.T) {
	extractor := mock.NewMockRecipeExtractor()
	extractor.ExtractRecipesFunc = func(ctx context.Context, text string) ([]core.RecipeFields, error) {
		return nil, errors.New("connection refused")
	}
	p := newTestPipeline(t, &staticFetcher{page: soupPage}, extractor)

	outcome := p.Run(context.Background(), core.NewJob(soupURL, 1, 0))
	assert.Equal(t, core.CodeServiceError, outcome.Status.Code)
	assert.Equal(t, "service error", outcome.Status.String())
	assert.Equal(t, "model unavailable", outcome.Status.Detail)
}

func TestPipeline_NoRecipes(t *testing.T) {
	t.Run("model finds none", func(t *testing.T) {
		extractor := mock.NewMockRecipeExtractor()
		extractor.ExtractRecipesFunc = func(ctx context.Context, text string) ([]core.RecipeFields, error) {
			return []core.RecipeFields{}, nil
		}
		p := newTestPipeline(t, &staticFetcher{page: soupPage}, extractor)

		job := core.NewJob(soupURL, 1, 0)
		outcome := p.Run(context.Background(), job)
		assert.Equal(t, core.CodeNoRecipes, outcome.Status.Code)
		assert.Equal(t, "no recipes found", outcome.Status.String())
		assert.Equal(t, core.StageParsed, job.Stage)
	})

	t.Run("page without text skips the model", func(t *testing.T) {
		extractor := soupExtractor()
		p := newTestPipeline(t, &staticFetcher{page: "<html><script>x()</script></html>"}, extractor)

		job := core.NewJob(soupURL, 1, 0)
		outcome := p.Run(context.Background(), job)
		assert.Equal(t, core.CodeNoRecipes, outcome.Status.Code)
		assert.Equal(t, core.StageExtracted, job.Stage)
		assert.Equal(t, 0, extractor.CallCount())
	})
}

func TestPipeline_TextIsCapped(t *testing.T) {
	var lines int
	extractor := mock.NewMockRecipeExtractor()
	extractor.ExtractRecipesFunc = func(ctx context.Context, text string) ([]core.RecipeFields, error) {
		lines = len(strings.Split(text, "\n"))
		return []core.RecipeFields{tomatoSoupFields()}, nil
	}
	p := newTestPipeline(t, &staticFetcher{page: longPage(2500)}, extractor)

	outcome := p.Run(context.Background(), core.NewJob(soupURL, 1, 0))
	require.True(t, outcome.Status.OK())
	assert.Equal(t, extract.DefaultMaxLines, lines)
}

func TestPipeline_CustomContentExtractor(t *testing.T) {
	var seen string
	extractor := mock.NewMockRecipeExtractor()
	extractor.ExtractRecipesFunc = func(ctx context.Context, text string) ([]core.RecipeFields, error) {
		seen = text
		return []core.RecipeFields{tomatoSoupFields()}, nil
	}
	p := newTestPipeline(t, &staticFetcher{page: longPage(50)}, extractor,
		WithContentExtractor(extract.New(extract.WithMaxLines(3))))

	p.Run(context.Background(), core.NewJob(soupURL, 1, 0))
	assert.Equal(t, "line 0\nline 1\nline 2", seen)
}

func TestFetchStatus(t *testing.T) {
	assert.Equal(t, core.StatusNotFound(), fetchStatus(&fetch.Error{Kind: fetch.KindHTTPStatus, StatusCode: 404}))
	assert.Equal(t, core.StatusTimeout(), fetchStatus(&fetch.Error{Kind: fetch.KindTimeout}))
	assert.Equal(t, core.CodeServiceError, fetchStatus(context.Canceled).Code)
}
