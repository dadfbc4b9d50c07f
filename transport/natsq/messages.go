package natsq

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/cookbook/core"
)

// Default subjects and queue group.
const (
	SubjectIngest = "cookbook.ingest"
	SubjectSearch = "cookbook.search"
	SubjectNotify = "cookbook.notify"
	DefaultQueue  = "cookbook"
)

// IngestRequest asks for the recipes at URL to be added for UserID.
// ChatID is the chat the link was shared in; it equals UserID for a private chat.
type IngestRequest struct {
	URL    string `json:"url"`
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
}

// Job converts the request into an ingestion job. A private chat carries no group.
func (r IngestRequest) Job() *core.Job {
	groupID := r.ChatID
	if groupID == r.UserID {
		groupID = 0
	}
	return core.NewJob(strings.TrimSpace(r.URL), r.UserID, groupID)
}

// IngestReply acknowledges an accepted ingest request.
type IngestReply struct {
	JobID string `json:"job_id,omitempty"`
	Error string `json:"error,omitempty"`
}

// SearchRequest is a free-text recipe query.
type SearchRequest struct {
	SearchText string `json:"search_text"`
	UserID     int64  `json:"user_id"`
	ChatID     int64  `json:"chat_id"`
	Limit      int    `json:"limit,omitempty"`
}

// SearchResponse answers a SearchRequest. Error is set instead of Hits on failure.
type SearchResponse struct {
	Hits  []Hit  `json:"hits"`
	Error string `json:"error,omitempty"`
}

// Hit is one search result.
type Hit struct {
	ID          string          `json:"id"`
	Title       string          `json:"title,omitempty"`
	URL         string          `json:"url,omitempty"`
	Category    string          `json:"category"`
	Ingredients json.RawMessage `json:"ingredients,omitempty"`
	Label       string          `json:"label,omitempty"`
	Score       float32         `json:"score"`
	Text        string          `json:"text"`
}

func decodeIngest(data []byte) (*IngestRequest, error) {
	var req IngestRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: missing url", ErrMalformedMessage)
	}
	if req.UserID == 0 {
		return nil, fmt.Errorf("%w: missing user_id", ErrMalformedMessage)
	}
	return &req, nil
}

func decodeSearch(data []byte) (*SearchRequest, error) {
	var req SearchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if strings.TrimSpace(req.SearchText) == "" {
		return nil, fmt.Errorf("%w: missing search_text", ErrMalformedMessage)
	}
	return &req, nil
}

// newHit flattens a search hit. Ingredients are passed through only when the
// stored metadata is valid JSON.
func newHit(h *core.SearchHit) Hit {
	hit := Hit{
		ID:       h.Chunk.RecordID.String(),
		Category: h.Chunk.Metadata.Category,
		Label:    h.Label,
		Score:    h.Score,
		Text:     h.Chunk.Text,
	}
	if raw := h.Chunk.Metadata.Ingredients; raw != "" && json.Valid([]byte(raw)) {
		hit.Ingredients = json.RawMessage(raw)
	}
	return hit
}
