package natsq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/ingestion"
	"github.com/poiesic/cookbook/storage"
)

const (
	defaultSearchTimeout = 30 * time.Second
	defaultSearchLimit   = 3
	maxSearchLimit       = 20
)

// Submitter queues an ingestion job. *ingestion.Ingestor implements it.
type Submitter interface {
	Submit(job *core.Job, callback func(*ingestion.Result)) error
}

// Searcher answers a free-text query. *search.Searcher implements it.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]*core.SearchHit, error)
}

// RecipeLookup resolves a record for display.
type RecipeLookup interface {
	FindByID(ctx context.Context, id core.ID) (*core.RecipeRecord, error)
}

// Server consumes ingest and search requests from NATS.
type Server struct {
	conn          *nats.Conn
	ingestor      Submitter
	searcher      Searcher
	recipes       RecipeLookup
	queue         string
	ingestSubject string
	searchSubject string
	searchTimeout time.Duration
	logger        *slog.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

// Option configures a Server.
type Option func(*Server) error

// WithSearcher enables the search subject.
func WithSearcher(searcher Searcher) Option {
	return func(s *Server) error {
		s.searcher = searcher
		return nil
	}
}

// WithRecipeLookup adds title and URL to search hits.
func WithRecipeLookup(recipes RecipeLookup) Option {
	return func(s *Server) error {
		s.recipes = recipes
		return nil
	}
}

// WithQueue sets the queue group name.
// Default is DefaultQueue.
func WithQueue(queue string) Option {
	return func(s *Server) error {
		if queue == "" {
			return errors.New("queue name cannot be empty")
		}
		s.queue = queue
		return nil
	}
}

// WithSubjects overrides the ingest and search subjects.
func WithSubjects(ingest, search string) Option {
	return func(s *Server) error {
		if ingest == "" || search == "" {
			return errors.New("subjects cannot be empty")
		}
		s.ingestSubject = ingest
		s.searchSubject = search
		return nil
	}
}

// WithSearchTimeout bounds each search request.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return fmt.Errorf("search timeout must be positive, got %v", d)
		}
		s.searchTimeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "natsq")
		return nil
	}
}

// NewServer creates a server. conn may be nil only if Start is never called.
func NewServer(conn *nats.Conn, ingestor Submitter, opts ...Option) (*Server, error) {
	if ingestor == nil {
		return nil, ErrIngestorRequired
	}
	s := &Server{
		conn:          conn,
		ingestor:      ingestor,
		queue:         DefaultQueue,
		ingestSubject: SubjectIngest,
		searchSubject: SubjectSearch,
		searchTimeout: defaultSearchTimeout,
		logger:        slog.Default().With("component", "natsq"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start subscribes to the ingest subject, and to the search subject when a
// searcher is configured.
func (s *Server) Start() error {
	if s.conn == nil {
		return ErrConnectionRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		return ErrAlreadyStarted
	}

	sub, err := s.conn.QueueSubscribe(s.ingestSubject, s.queue, s.onIngest)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.ingestSubject, err)
	}
	s.subs = append(s.subs, sub)

	if s.searcher != nil {
		sub, err := s.conn.QueueSubscribe(s.searchSubject, s.queue, s.onSearch)
		if err != nil {
			s.unsubscribeLocked()
			return fmt.Errorf("subscribe to %s: %w", s.searchSubject, err)
		}
		s.subs = append(s.subs, sub)
	}

	s.logger.Info("listening", "ingest", s.ingestSubject, "search", s.searchSubject, "queue", s.queue)
	return nil
}

// Stop drains the subscriptions so in-flight messages are handled.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, sub := range s.subs {
		if err := sub.Drain(); err != nil {
			errs = append(errs, err)
		}
	}
	s.subs = nil
	return errors.Join(errs...)
}

func (s *Server) unsubscribeLocked() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}

func (s *Server) onIngest(msg *nats.Msg) {
	reply := s.handleIngest(msg.Data)
	if msg.Reply == "" {
		return
	}
	s.respond(msg, reply)
}

func (s *Server) onSearch(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.searchTimeout)
	defer cancel()
	s.respond(msg, s.handleSearch(ctx, msg.Data))
}

func (s *Server) respond(msg *nats.Msg, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode reply", "subject", msg.Subject, "err", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("failed to send reply", "subject", msg.Subject, "err", err)
	}
}

// handleIngest decodes an ingest request and submits it.
func (s *Server) handleIngest(data []byte) IngestReply {
	req, err := decodeIngest(data)
	if err != nil {
		s.logger.Warn("dropping ingest request", "err", err)
		return IngestReply{Error: err.Error()}
	}

	job := req.Job()
	err = s.ingestor.Submit(job, func(result *ingestion.Result) {
		s.logger.Debug("job finished", "job", result.JobID, "url", result.URL, "status", result.Status.Code)
	})
	if err != nil {
		s.logger.Error("failed to submit job", "url", job.URL, "err", err)
		return IngestReply{Error: err.Error()}
	}
	s.logger.Info("job submitted", "job", job.ID, "url", job.URL, "user", req.UserID)
	return IngestReply{JobID: job.ID}
}

// handleSearch runs a search request and shapes the response.
func (s *Server) handleSearch(ctx context.Context, data []byte) SearchResponse {
	if s.searcher == nil {
		return SearchResponse{Error: "search is not enabled"}
	}
	req, err := decodeSearch(data)
	if err != nil {
		return SearchResponse{Error: err.Error()}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	results, err := s.searcher.Search(ctx, req.SearchText, limit)
	if err != nil {
		s.logger.Error("search failed", "query", req.SearchText, "err", err)
		return SearchResponse{Error: err.Error()}
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hit := newHit(r)
		if s.recipes != nil {
			record, err := s.recipes.FindByID(ctx, r.Chunk.RecordID)
			switch {
			case err == nil:
				hit.Title = record.Title
				hit.URL = record.SourceURL
			case errors.Is(err, storage.ErrNotFound):
				s.logger.Debug("hit for missing record", "id", r.Chunk.RecordID)
				continue
			default:
				s.logger.Warn("recipe lookup failed", "id", r.Chunk.RecordID, "err", err)
			}
		}
		hits = append(hits, hit)
	}
	return SearchResponse{Hits: hits}
}
