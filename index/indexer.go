package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/core"
	"github.com/poiesic/cookbook/storage"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 512
	// DefaultChunkOverlap is how many characters consecutive chunks share.
	DefaultChunkOverlap = 50
)

// Indexer writes the vector chunks of recipe records.
// It is safe for concurrent use.
type Indexer struct {
	chunks       storage.ChunkRepository
	embedder     ai.Embedder
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithChunkSize sets the maximum chunk length.
// Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			return fmt.Errorf("%w: chunk size %d", ErrInvalidChunking, size)
		}
		ix.chunkSize = size
		return nil
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks.
// Default is DefaultChunkOverlap.
func WithChunkOverlap(overlap int) Option {
	return func(ix *Indexer) error {
		if overlap < 0 {
			return fmt.Errorf("%w: chunk overlap %d", ErrInvalidChunking, overlap)
		}
		ix.chunkOverlap = overlap
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger.With("component", "indexer")
		return nil
	}
}

// NewIndexer creates an indexer that embeds with embedder and stores into chunks.
func NewIndexer(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Indexer, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ix := &Indexer{
		chunks:       chunks,
		embedder:     embedder,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		logger:       slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	if ix.chunkOverlap >= ix.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than size %d",
			ErrInvalidChunking, ix.chunkOverlap, ix.chunkSize)
	}
	return ix, nil
}

// Split returns the chunk texts for record.
func (ix *Indexer) Split(record *core.RecipeRecord) ([]string, error) {
	text := CompositeText(record)
	if text == "" {
		return nil, nil
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(ix.chunkSize),
		textsplitter.WithChunkOverlap(ix.chunkOverlap),
	)
	return splitter.SplitText(text)
}

// Build produces the embedded chunks for record without storing them.
func (ix *Indexer) Build(ctx context.Context, record *core.RecipeRecord) ([]*core.IndexChunk, error) {
	texts, err := ix.Split(record)
	if err != nil {
		return nil, fmt.Errorf("%w: split %s: %w", ErrIndexingFailure, record.ID, err)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: embed %s: %w", ErrIndexingFailure, record.ID, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: embedding result mismatch. expected %d, received %d",
			ErrIndexingFailure, len(texts), len(vectors))
	}

	ingredients, err := json.Marshal(record.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("%w: encode ingredients of %s: %w", ErrIndexingFailure, record.ID, err)
	}
	metadata := core.ChunkMetadata{
		RecordID:    record.ID.String(),
		Category:    record.Category,
		Ingredients: string(ingredients),
	}
	chunks := make([]*core.IndexChunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.IndexChunk{
			ID:       core.ChunkID(record.ID, i),
			RecordID: record.ID,
			Seq:      i,
			Text:     text,
			Metadata: metadata,
			Vector:   NormalizeVector(vectors[i]),
		}
	}
	return chunks, nil
}

// Index replaces the stored chunks of record with freshly embedded ones.
func (ix *Indexer) Index(ctx context.Context, record *core.RecipeRecord) error {
	chunks, err := ix.Build(ctx, record)
	if err != nil {
		ix.logger.Error("error building chunks", "record", record.ID, "err", err)
		return err
	}
	if err := ix.chunks.ReplaceChunks(ctx, record.ID, chunks); err != nil {
		ix.logger.Error("error storing chunks", "record", record.ID, "err", err)
		return fmt.Errorf("%w: store %s: %w", ErrIndexingFailure, record.ID, err)
	}
	ix.logger.Debug("indexed record", "record", record.ID, "chunks", len(chunks))
	return nil
}

// Remove deletes every chunk of the record.
func (ix *Indexer) Remove(ctx context.Context, recordID core.ID) error {
	if err := ix.chunks.DeleteChunks(ctx, recordID); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrIndexingFailure, recordID, err)
	}
	return nil
}
