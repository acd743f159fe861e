package bedrock

import (
	"encoding/json"
	"fmt"
	"strings"

	"recipeagent"
	"recipeagent/recovery"
)

type Prompt struct {
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// NewPrompt builds the opening conversation for task. When previous is set the model is asked to refine
// that recipe instead of starting over.
func NewPrompt(task string, previous *recovery.Payload, tp recipeagent.ToolProvider) (Prompt, error) {
	tools := tp.GetTools()

	bedrockTools := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		bedrockTools = append(bedrockTools, Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}

	userText := task
	if previous != nil {
		b, err := json.Marshal(previous)
		if err != nil {
			return Prompt{}, fmt.Errorf("failed to encode previous recipe: %w", err)
		}
		userText = fmt.Sprintf("CURRENT RECIPE (revise it to satisfy the request below; keep what the request does not change):\n%s\n\nREQUEST:\n%s", b, task)
	}

	return Prompt{
		Messages: []Message{
			NewTextMessage("system", systemPrompt),
			NewTextMessage("user", userText),
		},
		Tools: bedrockTools,
	}, nil
}

const systemPrompt = `You are a recipe generator for a cooking catalog.

GOAL:
Write one complete recipe for the user's request. Ground ingredients, techniques and tips in the catalog using the search tools, then return the final recipe JSON.

TOOL USE:
- ingredient_search, hack_or_tip_search, framework_category_search and recipe_search each take {"query": "<keyword>"}.
- Search with one short keyword per call (e.g. "leek", not "two large leeks, sliced"). Queries under 2 characters return nothing.
- Each search returns at most 10 matches. Prefer catalog ingredients and reference them by id in "ingredientId".
- You may issue several searches in the same turn.
- Do not wrap tool requests in JSON text. Do not echo tool results yourself; the coordinator supplies them.

FINAL OUTPUT FORMAT:
Return ONLY this JSON object, with no text before or after it and no code fences:
{
  "recipe": {
    "title": string,
    "description": string,
    "servings": integer,
    "components": [{"name": string, "ingredients": [...], "steps": [string]}],
    "ingredients": [{"ingredientId": string, "name": string, "amount": number, "unit": string}],
    "steps": [string],
    "tips": [string]
  },
  "missingSuggestions": {
    "ingredients": [string],
    "hacksOrTips": [string]
  }
}

RULES:
- "missingSuggestions.ingredients" lists ingredients the recipe needs that no search found.
- "missingSuggestions.hacksOrTips" lists useful tips the catalog lacked.
- Use empty arrays when nothing is missing.
- Never invent catalog ids; omit "ingredientId" for ingredients you did not find.
- The JSON must be valid: double-quoted keys, no comments, no trailing commas.
`

// LastText returns the text of the most recent message that has any, shortened to n bytes for logging.
func (p *Prompt) LastText(n int) string {
	for i := len(p.Messages) - 1; i >= 0; i-- {
		text := strings.TrimSpace(p.Messages[i].Content.Join())
		if text == "" {
			continue
		}
		if len(text) > n && n > 3 {
			text = text[:n-3] + "..."
		}
		return text
	}
	return "no content"
}
