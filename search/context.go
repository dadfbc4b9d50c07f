package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/cookbook/core"
)

// BuildContext renders the candidate hits as the text block handed to the re-ranker.
// Each entry starts with an "id:" line carrying the record id.
func BuildContext(hits []*core.SearchHit) string {
	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "id: %s\n", hit.Chunk.Metadata.RecordID)
		fmt.Fprintf(&b, "category: %s\n", hit.Chunk.Metadata.Category)
		fmt.Fprintf(&b, "ingredients: %s\n", hit.Chunk.Metadata.Ingredients)
		fmt.Fprintf(&b, "score: %.4f\n", hit.Score)
		fmt.Fprintf(&b, "text: %s\n", hit.Chunk.Text)
	}
	return b.String()
}
