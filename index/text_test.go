package index

import (
	"testing"

	"github.com/poiesic/cookbook/core"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"punctuation becomes space", "Chop, then simmer!", "chop then simmer"},
		{"collapses whitespace", "  a \t\n b   c ", "a b c"},
		{"unicode lowercase", "CRÈME Brûlée", "crème brûlée"},
		{"symbols removed", "180°C + salt", "180 c salt"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	in := "Tomato-Soup: (easy) 20 min."
	assert.Equal(t, Normalize(in), Normalize(in))
	assert.Equal(t, Normalize(in), Normalize(Normalize(in)))
}

func TestCompositeText(t *testing.T) {
	record := &core.RecipeRecord{
		Title:    "Tomato Soup",
		Category: "soup",
		Ingredients: core.Ingredients{
			{Name: "tomato", Quantity: "4 pcs"},
			{Name: "salt", Quantity: "1 tsp"},
		},
		Steps: []string{"Chop tomatoes.", "Simmer 20 minutes."},
	}

	assert.Equal(t,
		"title tomato soup category soup ingredients tomato 4 pcs salt 1 tsp steps chop tomatoes simmer 20 minutes",
		CompositeText(record))
}

func TestIngredientsSummary(t *testing.T) {
	summary := IngredientsSummary(core.Ingredients{
		{Name: "flour", Quantity: "200 g"},
		{Name: "pepper"},
	})
	assert.Equal(t, "flour 200 g, pepper", summary)
	assert.Equal(t, "", IngredientsSummary(nil))
}

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})
		assert.InDelta(t, 0.6, v[0], 1e-6)
		assert.InDelta(t, 0.8, v[1], 1e-6)
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Equal(t, []float32{0, 0, 0}, NormalizeVector([]float32{0, 0, 0}))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})

	t.Run("input untouched", func(t *testing.T) {
		in := []float32{2, 0}
		_ = NormalizeVector(in)
		assert.Equal(t, []float32{2, 0}, in)
	})
}
