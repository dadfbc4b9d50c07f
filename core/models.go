package core

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Recipe IDs are content-derived so the same (url, position) pair always maps
// to the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// RecipeID returns the identity of the recipe at position on the page at sourceURL.
func RecipeID(sourceURL string, position int) ID {
	return IDFromContent(sourceURL + "\x00" + strconv.Itoa(position))
}

// String renders the ID as fixed-width hex.
func (id ID) String() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// ParseID parses the hex form produced by ID.String.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(v), nil
}

// RecipeFields is the structured content pulled out of a page by the extractor.
type RecipeFields struct {
	Title       string      `json:"title"`
	Category    string      `json:"category"`
	Ingredients Ingredients `json:"ingredients"`
	Steps       []string    `json:"steps"`
}

// RecipeRecord is the canonical persisted recipe.
// Content fields are written once; Owners and Groups only ever grow.
type RecipeRecord struct {
	ID          ID          `json:"id"`
	SourceURL   string      `json:"source_url"`
	Position    int         `json:"position"`
	Title       string      `json:"title"`
	Category    string      `json:"category"`
	Ingredients Ingredients `json:"ingredients"`
	Steps       []string    `json:"steps"`
	Owners      []int64     `json:"owners"`
	Groups      []int64     `json:"groups"`
	InsertedAt  time.Time   `json:"inserted_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewRecipeRecord builds a record for a freshly extracted recipe.
// A zero groupID means the request carried no group.
func NewRecipeRecord(sourceURL string, position int, fields RecipeFields, ownerID, groupID int64) *RecipeRecord {
	r := &RecipeRecord{
		ID:          RecipeID(sourceURL, position),
		SourceURL:   sourceURL,
		Position:    position,
		Title:       fields.Title,
		Category:    fields.Category,
		Ingredients: slices.Clone(fields.Ingredients),
		Steps:       slices.Clone(fields.Steps),
	}
	r.AddOwner(ownerID, groupID)
	return r
}

// Fields returns the content portion of the record.
func (r *RecipeRecord) Fields() RecipeFields {
	return RecipeFields{
		Title:       r.Title,
		Category:    r.Category,
		Ingredients: r.Ingredients,
		Steps:       r.Steps,
	}
}

// AddOwner merges ownerID and groupID into the record's sets.
// Reports whether either set changed.
func (r *RecipeRecord) AddOwner(ownerID, groupID int64) bool {
	var changed bool
	r.Owners, changed = insertSorted(r.Owners, ownerID)
	if groupID != 0 {
		var groupChanged bool
		r.Groups, groupChanged = insertSorted(r.Groups, groupID)
		changed = changed || groupChanged
	}
	return changed
}

// OwnedBy reports whether ownerID is among the record's owners.
func (r *RecipeRecord) OwnedBy(ownerID int64) bool {
	_, found := slices.BinarySearch(r.Owners, ownerID)
	return found
}

// Summary projects the record for listings.
func (r *RecipeRecord) Summary() RecipeSummary {
	return RecipeSummary{ID: r.ID, Title: r.Title, Category: r.Category}
}

func insertSorted(set []int64, v int64) ([]int64, bool) {
	i, found := slices.BinarySearch(set, v)
	if found {
		return set, false
	}
	return slices.Insert(set, i, v), true
}

// RecipeSummary is the listing projection of a RecipeRecord.
type RecipeSummary struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// ChunkMetadata is the flat metadata attached to every index chunk.
// Every value is a primitive so any vector backend can filter on it.
type ChunkMetadata struct {
	RecordID    string `json:"id"`
	Category    string `json:"category"`
	Ingredients string `json:"ingredients"` // JSON object, name -> quantity
}

// IndexChunk is one embedded segment of a recipe's composite text.
type IndexChunk struct {
	ID       string        `json:"chunk_id"`
	RecordID ID            `json:"record_id"`
	Seq      int           `json:"seq"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Vector   []float32     `json:"vector,omitempty"`
}

// ChunkID returns the identifier of the seq-th chunk of a record.
func ChunkID(recordID ID, seq int) string {
	return fmt.Sprintf("%s-%d", recordID, seq)
}

// SearchHit is a similarity match, optionally labeled by the re-ranker.
type SearchHit struct {
	Chunk *IndexChunk `json:"chunk"`
	Score float32     `json:"score"`
	Label string      `json:"label,omitempty"`
}
