package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"recipeagent/catalog"
)

// Lookup is the catalog search surface the tools need. *catalog.Lookup implements it.
type Lookup interface {
	SearchIngredients(ctx context.Context, q string) ([]catalog.Ingredient, error)
	SearchHacksOrTips(ctx context.Context, q string) ([]catalog.HackOrTip, error)
	SearchFrameworkCategories(ctx context.Context, q string) ([]catalog.FrameworkCategory, error)
	SearchRecipes(ctx context.Context, q string) ([]catalog.RecipeRef, error)
}

// SearchTool exposes one catalog search to the model. Input is {"query": string} and output is
// {"results": [{"id": ..., <labelField>: ...}]}.
type SearchTool[T any] struct {
	name        string
	title       string
	description string
	labelField  string
	search      func(ctx context.Context, q string) ([]T, error)
}

func NewIngredientSearch(l Lookup) *SearchTool[catalog.Ingredient] {
	return &SearchTool[catalog.Ingredient]{
		name:        "ingredient_search",
		title:       "Search Ingredients",
		description: "Finds catalog ingredients whose name contains the query, ignoring case. Use one short keyword such as \"leek\"; queries under 2 characters return nothing. Returns at most 10 matches with their ids.",
		labelField:  "name",
		search:      l.SearchIngredients,
	}
}

func NewHackOrTipSearch(l Lookup) *SearchTool[catalog.HackOrTip] {
	return &SearchTool[catalog.HackOrTip]{
		name:        "hack_or_tip_search",
		title:       "Search Hacks and Tips",
		description: "Finds cooking hacks and tips whose title contains the query, ignoring case. Returns at most 10 matches with their ids and text.",
		labelField:  "text",
		search:      l.SearchHacksOrTips,
	}
}

func NewFrameworkCategorySearch(l Lookup) *SearchTool[catalog.FrameworkCategory] {
	return &SearchTool[catalog.FrameworkCategory]{
		name:        "framework_category_search",
		title:       "Search Framework Categories",
		description: "Finds recipe framework categories (techniques such as braise or stir fry) whose name contains the query, ignoring case. Returns at most 10 matches.",
		labelField:  "name",
		search:      l.SearchFrameworkCategories,
	}
}

func NewRecipeSearch(l Lookup) *SearchTool[catalog.RecipeRef] {
	return &SearchTool[catalog.RecipeRef]{
		name:        "recipe_search",
		title:       "Search Recipes",
		description: "Finds existing catalog recipes whose title contains the query, ignoring case. Returns at most 10 matches with their ids and titles.",
		labelField:  "title",
		search:      l.SearchRecipes,
	}
}

func (t *SearchTool[T]) Name() string        { return t.name }
func (t *SearchTool[T]) Title() string       { return t.title }
func (t *SearchTool[T]) Description() string { return t.description }

func (t *SearchTool[T]) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string"},
		},
		Required: []string{"query"},
	}
}

func (t *SearchTool[T]) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"results": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":         {Type: "string"},
						t.labelField: {Type: "string"},
					},
					Required: []string{"id", t.labelField},
				},
			},
		},
		Required: []string{"results"},
	}
}

// Run searches with input["query"]. A missing or non-string query is treated as empty and yields no
// results. Lookup failures are returned to the caller.
func (t *SearchTool[T]) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	q, _ := input["query"].(string)

	results, err := t.search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.name, err)
	}

	return toMap(struct {
		Results []T `json:"results"`
	}{Results: results})
}
