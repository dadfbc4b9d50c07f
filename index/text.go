package index

import (
	"strings"
	"unicode"

	"github.com/poiesic/cookbook/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CompositeText flattens a record into the normalized text that is chunked and embedded.
func CompositeText(record *core.RecipeRecord) string {
	var b strings.Builder
	b.WriteString("title ")
	b.WriteString(record.Title)
	b.WriteString(" category ")
	b.WriteString(record.Category)
	b.WriteString(" ingredients ")
	b.WriteString(IngredientsSummary(record.Ingredients))
	b.WriteString(" steps ")
	b.WriteString(strings.Join(record.Steps, " "))
	return Normalize(b.String())
}

// IngredientsSummary renders ingredients as "name qty, name qty" text.
func IngredientsSummary(ingredients core.Ingredients) string {
	parts := make([]string, 0, len(ingredients))
	for _, in := range ingredients {
		if in.Quantity == "" {
			parts = append(parts, in.Name)
			continue
		}
		parts = append(parts, in.Name+" "+in.Quantity)
	}
	return strings.Join(parts, ", ")
}

// Normalize replaces punctuation with spaces, collapses whitespace, and
// lowercases without regard to locale.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	// cases.Caser is stateful, so build one per call.
	return cases.Lower(language.Und).String(s)
}
