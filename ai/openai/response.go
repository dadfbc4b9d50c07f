package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/cookbook/ai"
	"github.com/poiesic/cookbook/core"
	"github.com/tidwall/gjson"
)

// cleanResponse strips Markdown code fences and repairs common key-quoting defects.
func cleanResponse(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	return repairJSON(text)
}

// parseRecipes validates an extraction response field by field.
// Accepts {"recipes": [...]} or a single bare recipe object.
func parseRecipes(raw string) ([]core.RecipeFields, error) {
	text := cleanResponse(raw)
	if text == "" {
		return nil, ai.NewParseError(raw, "empty response", nil)
	}
	if !gjson.Valid(text) {
		return nil, ai.NewParseError(raw, "invalid JSON", nil)
	}

	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, ai.NewParseError(raw, "expected a JSON object", nil)
	}

	var items []gjson.Result
	if list := root.Get("recipes"); list.Exists() {
		if !list.IsArray() {
			return nil, ai.NewParseError(raw, "recipes is not an array", nil)
		}
		items = list.Array()
	} else {
		items = []gjson.Result{root}
	}

	recipes := make([]core.RecipeFields, 0, len(items))
	for i, item := range items {
		fields, reason := parseRecipe(item)
		if reason != "" {
			if len(items) > 1 {
				reason = fmt.Sprintf("recipe %d: %s", i, reason)
			}
			return nil, ai.NewParseError(raw, reason, nil)
		}
		recipes = append(recipes, fields)
	}
	return recipes, nil
}

// parseRecipe returns the decoded fields or a non-empty reason.
func parseRecipe(item gjson.Result) (core.RecipeFields, string) {
	var fields core.RecipeFields
	if !item.IsObject() {
		return fields, "recipe is not an object"
	}

	title := item.Get("title")
	if title.Type != gjson.String {
		return fields, fieldReason("title", title, "a string")
	}
	fields.Title = strings.TrimSpace(title.String())

	category := item.Get("category")
	if category.Type != gjson.String {
		return fields, fieldReason("category", category, "a string")
	}
	fields.Category = strings.TrimSpace(category.String())

	ingredients := item.Get("ingredients")
	if !ingredients.IsObject() {
		return fields, fieldReason("ingredients", ingredients, "an object")
	}
	if err := fields.Ingredients.UnmarshalJSON([]byte(ingredients.Raw)); err != nil {
		return fields, err.Error()
	}

	steps := item.Get("description")
	if !steps.IsArray() {
		return fields, fieldReason("description", steps, "an array")
	}
	fields.Steps = make([]string, 0, len(steps.Array()))
	for _, step := range steps.Array() {
		if step.Type != gjson.String {
			return fields, "description: steps must be strings"
		}
		fields.Steps = append(fields.Steps, step.String())
	}
	return fields, ""
}

func fieldReason(name string, value gjson.Result, want string) string {
	if !value.Exists() {
		return "missing field " + name
	}
	return fmt.Sprintf("%s is not %s", name, want)
}

// parseRanking validates a re-rank response of the form {"recipes":[{"id","category"}]}.
func parseRanking(raw string) ([]ai.RankedRecipe, error) {
	text := cleanResponse(raw)
	if !gjson.Valid(text) || text == "" {
		return nil, ai.NewParseError(raw, "invalid JSON", nil)
	}
	list := gjson.Get(text, "recipes")
	if !list.IsArray() {
		return nil, ai.NewParseError(raw, "recipes is not an array", nil)
	}

	ranked := make([]ai.RankedRecipe, 0, len(list.Array()))
	for _, item := range list.Array() {
		id := item.Get("id")
		var idText string
		switch id.Type {
		case gjson.String:
			idText = id.String()
		case gjson.Number:
			// Keep the literal digits; hex ids can look numeric.
			idText = id.Raw
		default:
			return nil, ai.NewParseError(raw, "recipe id is not a string", nil)
		}
		ranked = append(ranked, ai.RankedRecipe{
			ID:       strings.TrimSpace(idText),
			Category: strings.TrimSpace(item.Get("category").String()),
		})
	}
	return ranked, nil
}
