package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poiesic/cookbook/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.JobFinished(core.CodeOK)
	m.JobFinished(core.CodeOK)
	m.JobFinished(core.CodeParseError)
	m.RecipeStored(true)
	m.RecipeStored(false)
	m.RecipeStored(false)
	m.IndexFailed()
	m.SearchFinished(SearchFallback, 20*time.Millisecond)
	m.ObserveStage("fetch", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("parse_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recipes.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recipes.WithLabelValues("merged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.indexFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(SearchFallback)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.JobFinished(core.CodeOK)
		m.ObserveStage("fetch", time.Second)
		m.RecipeStored(true)
		m.IndexFailed()
		m.SearchFinished(SearchReranked, time.Second)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.JobFinished(core.CodeTimeout)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `cookbook_jobs_total{status="timeout"} 1`)
}
