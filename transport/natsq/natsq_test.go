package natsq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/ingestion"
	"github.com/poiesic/cookbook/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []*core.Job
	err  error
}

func (f *fakeSubmitter) Submit(job *core.Job, callback func(*ingestion.Result)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	if callback != nil {
		callback(&ingestion.Result{JobID: job.ID, URL: job.URL, Status: core.StatusOK()})
	}
	return nil
}

type searcherFunc func(ctx context.Context, query string, topK int) ([]*core.SearchHit, error)

func (f searcherFunc) Search(ctx context.Context, query string, topK int) ([]*core.SearchHit, error) {
	return f(ctx, query, topK)
}

type lookupFunc func(ctx context.Context, id core.ID) (*core.RecipeRecord, error)

func (f lookupFunc) FindByID(ctx context.Context, id core.ID) (*core.RecipeRecord, error) {
	return f(ctx, id)
}

type recordingConn struct {
	subject string
	data    []byte
	err     error
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	c.subject = subject
	c.data = data
	return c.err
}

func soupHit(id core.ID, score float32) *core.SearchHit {
	return &core.SearchHit{
		Chunk: &core.IndexChunk{
			ID:       core.ChunkID(id, 0),
			RecordID: id,
			Text:     "title tomato soup category soup",
			Metadata: core.ChunkMetadata{
				RecordID:    id.String(),
				Category:    "soup",
				Ingredients: `{"tomato":"4 pcs"}`,
			},
		},
		Score: score,
		Label: "soup",
	}
}

func TestIngestRequest_Job(t *testing.T) {
	tests := []struct {
		name      string
		req       IngestRequest
		wantGroup int64
	}{
		{"group chat", IngestRequest{URL: "https://example.com/soup", UserID: 7, ChatID: -100}, -100},
		{"private chat", IngestRequest{URL: "https://example.com/soup", UserID: 7, ChatID: 7}, 0},
		{"no chat", IngestRequest{URL: "https://example.com/soup", UserID: 7}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := tt.req.Job()
			assert.Equal(t, "https://example.com/soup", job.URL)
			assert.Equal(t, int64(7), job.RequesterID)
			assert.Equal(t, tt.wantGroup, job.GroupID)
			assert.NotEmpty(t, job.ID)
		})
	}
}

func TestDecodeIngest(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", `{"url":"https://example.com/soup","user_id":7,"chat_id":-100}`, false},
		{"invalid json", `{"url":`, true},
		{"missing url", `{"user_id":7}`, true},
		{"blank url", `{"url":"  ","user_id":7}`, true},
		{"missing user", `{"url":"https://example.com/soup"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := decodeIngest([]byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, IngestRequest{URL: "https://example.com/soup", UserID: 7, ChatID: -100}, *req)
		})
	}
}

func TestServer_HandleIngest(t *testing.T) {
	submitter := &fakeSubmitter{}
	s, err := NewServer(nil, submitter)
	require.NoError(t, err)

	reply := s.handleIngest([]byte(`{"url":"https://example.com/soup","user_id":7,"chat_id":-100}`))
	assert.Empty(t, reply.Error)
	require.Len(t, submitter.jobs, 1)
	assert.Equal(t, submitter.jobs[0].ID, reply.JobID)
	assert.Equal(t, int64(-100), submitter.jobs[0].GroupID)

	reply = s.handleIngest([]byte(`not json`))
	assert.Empty(t, reply.JobID)
	assert.NotEmpty(t, reply.Error)
	assert.Len(t, submitter.jobs, 1)

	submitter.err = errors.New("pool is closed")
	reply = s.handleIngest([]byte(`{"url":"https://example.com/stew","user_id":7}`))
	assert.Equal(t, "pool is closed", reply.Error)
}

func TestServer_HandleSearch(t *testing.T) {
	first, second := core.RecipeID("https://example.com/soup", 0), core.RecipeID("https://example.com/gone", 0)

	var gotQuery string
	var gotTopK int
	searcher := searcherFunc(func(ctx context.Context, query string, topK int) ([]*core.SearchHit, error) {
		gotQuery, gotTopK = query, topK
		return []*core.SearchHit{soupHit(first, 0.9), soupHit(second, 0.5)}, nil
	})
	lookup := lookupFunc(func(ctx context.Context, id core.ID) (*core.RecipeRecord, error) {
		if id == first {
			return &core.RecipeRecord{ID: id, Title: "Tomato Soup", SourceURL: "https://example.com/soup"}, nil
		}
		return nil, storage.ErrNotFound
	})

	s, err := NewServer(nil, &fakeSubmitter{}, WithSearcher(searcher), WithRecipeLookup(lookup))
	require.NoError(t, err)

	resp := s.handleSearch(context.Background(), []byte(`{"search_text":"tomato soup","user_id":7,"chat_id":7}`))
	require.Empty(t, resp.Error)
	assert.Equal(t, "tomato soup", gotQuery)
	assert.Equal(t, defaultSearchLimit, gotTopK)

	require.Len(t, resp.Hits, 1, "hits for missing records are dropped")
	hit := resp.Hits[0]
	assert.Equal(t, first.String(), hit.ID)
	assert.Equal(t, "Tomato Soup", hit.Title)
	assert.Equal(t, "https://example.com/soup", hit.URL)
	assert.Equal(t, "soup", hit.Category)
	assert.JSONEq(t, `{"tomato":"4 pcs"}`, string(hit.Ingredients))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hits":[`)
}

func TestServer_HandleSearchErrors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s, err := NewServer(nil, &fakeSubmitter{})
		require.NoError(t, err)
		resp := s.handleSearch(context.Background(), []byte(`{"search_text":"soup"}`))
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("empty query", func(t *testing.T) {
		s, err := NewServer(nil, &fakeSubmitter{}, WithSearcher(searcherFunc(
			func(ctx context.Context, query string, topK int) ([]*core.SearchHit, error) {
				t.Fatal("searcher should not be called")
				return nil, nil
			})))
		require.NoError(t, err)
		resp := s.handleSearch(context.Background(), []byte(`{"search_text":"   "}`))
		assert.Contains(t, resp.Error, "search_text")
	})

	t.Run("limit is capped", func(t *testing.T) {
		var gotTopK int
		s, err := NewServer(nil, &fakeSubmitter{}, WithSearcher(searcherFunc(
			func(ctx context.Context, query string, topK int) ([]*core.SearchHit, error) {
				gotTopK = topK
				return nil, nil
			})))
		require.NoError(t, err)
		resp := s.handleSearch(context.Background(), []byte(`{"search_text":"soup","limit":500}`))
		assert.Empty(t, resp.Error)
		assert.Empty(t, resp.Hits)
		assert.Equal(t, maxSearchLimit, gotTopK)
	})

	t.Run("search failure", func(t *testing.T) {
		s, err := NewServer(nil, &fakeSubmitter{}, WithSearcher(searcherFunc(
			func(ctx context.Context, query string, topK int) ([]*core.SearchHit, error) {
				return nil, errors.New("embedding service unavailable")
			})))
		require.NoError(t, err)
		resp := s.handleSearch(context.Background(), []byte(`{"search_text":"soup"}`))
		assert.Equal(t, "embedding service unavailable", resp.Error)
	})
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.ErrorIs(t, err, ErrIngestorRequired)

	_, err = NewServer(nil, &fakeSubmitter{}, WithQueue(""))
	assert.Error(t, err)

	_, err = NewServer(nil, &fakeSubmitter{}, WithSearchTimeout(0))
	assert.Error(t, err)

	s, err := NewServer(nil, &fakeSubmitter{})
	require.NoError(t, err)
	assert.ErrorIs(t, s.Start(), ErrConnectionRequired)
	assert.NoError(t, s.Stop())
}

func TestPublisher_Notify(t *testing.T) {
	conn := &recordingConn{}
	p, err := NewPublisher(conn, "")
	require.NoError(t, err)

	n := ingestion.Notification{
		JobID:        "job-1",
		RecipientID:  7,
		URL:          "https://example.com/soup",
		Status:       core.StatusOK(),
		Text:         `Saved: "Tomato Soup"`,
		RecipeTitles: []string{"Tomato Soup"},
	}
	require.NoError(t, p.Notify(context.Background(), n))
	assert.Equal(t, SubjectNotify, conn.subject)

	var got ingestion.Notification
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, n, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Notify(ctx, n), context.Canceled)

	_, err = NewPublisher(nil, "")
	assert.ErrorIs(t, err, ErrConnectionRequired)
}
