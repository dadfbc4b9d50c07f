package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/cookbook/ai"
)

const systemPrompt = "You are a cooking expert. You read web pages and cookbooks and answer only with JSON."

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "recipes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "ingredients": {
            "type": "object",
            "additionalProperties": {"type": "string"}
          },
          "description": {
            "type": "array",
            "items": {"type": "string"}
          },
          "category": {"type": "string"}
        },
        "required": ["title", "ingredients", "description", "category"],
        "additionalProperties": false
      }
    }
  },
  "required": ["recipes"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Find all recipes in the text below and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "title" is the name of the dish.
- "ingredients" maps each ingredient name to its quantity, e.g. {"tomato": "4 pcs", "salt": "1 tsp"}. Use "" when no quantity is given.
- "description" lists the preparation steps in order, one string per step.
- "category" is the type of dish. Prefer one of: %s.
- Include only recipes that are present in the text. Do not invent recipes.
- If the text contains no recipe, return {"recipes": []}.

Text:
%s`

const rerankResponseSchema = `{
  "type": "object",
  "properties": {
    "recipes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "category": {"type": "string"}
        },
        "required": ["id", "category"]
      }
    }
  },
  "required": ["recipes"]
}`

const rerankPromptTemplate = `A user is looking for recipes. Their request is:

%s

Below are candidate recipes found by similarity search. Each starts with its id.

%s

Select the candidates that match the request, best match first, and return them as JSON following
this schema:

%s

Rules:
- Use the ids exactly as given. Do not invent ids.
- "category" is the type of dish for that candidate.
- If no candidate matches, return {"recipes": []}.
- Output ONLY the JSON object.`

// buildExtractionPrompt embeds the schema, categories, and page text.
func buildExtractionPrompt(text string) string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(ai.RecipeCategories, ", "),
		text)
}

func buildRerankPrompt(query, contextBlock string) string {
	return fmt.Sprintf(rerankPromptTemplate, query, contextBlock, rerankResponseSchema)
}
