package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeagent/catalog"
)

// memStore is a catalog.Store over fixed records, matched by substring on the label.
type memStore struct {
	records map[catalog.Collection][]catalog.Record
	err     error
}

func (m *memStore) Search(_ context.Context, q catalog.Query) ([]catalog.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []catalog.Record{}
	for _, r := range m.records[q.Collection] {
		if strings.Contains(strings.ToLower(r.Label), q.Pattern) {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestLookup() *catalog.Lookup {
	return catalog.NewLookup(&memStore{records: map[catalog.Collection][]catalog.Record{
		catalog.Ingredients:         {{ID: "1", Label: "Leek"}, {ID: "2", Label: "Garlic"}},
		catalog.HacksOrTips:         {{ID: "t1", Label: "Salt pasta water"}},
		catalog.FrameworkCategories: {{ID: "c1", Label: "Braise"}},
		catalog.Recipes:             {{ID: "r1", Label: "Leek Soup"}},
	}})
}

func TestSearchTools_Run(t *testing.T) {
	lookup := newTestLookup()

	tests := []struct {
		name     string
		tool     Tool
		input    map[string]any
		expected map[string]any
	}{
		{
			name:  "ingredients",
			tool:  NewIngredientSearch(lookup),
			input: map[string]any{"query": " LEEK"},
			expected: map[string]any{"results": []any{
				map[string]any{"id": "1", "name": "Leek"},
			}},
		},
		{
			name:  "hacks or tips report text",
			tool:  NewHackOrTipSearch(lookup),
			input: map[string]any{"query": "pasta"},
			expected: map[string]any{"results": []any{
				map[string]any{"id": "t1", "text": "Salt pasta water"},
			}},
		},
		{
			name:  "framework categories",
			tool:  NewFrameworkCategorySearch(lookup),
			input: map[string]any{"query": "brai"},
			expected: map[string]any{"results": []any{
				map[string]any{"id": "c1", "name": "Braise"},
			}},
		},
		{
			name:  "recipes report title",
			tool:  NewRecipeSearch(lookup),
			input: map[string]any{"query": "soup"},
			expected: map[string]any{"results": []any{
				map[string]any{"id": "r1", "title": "Leek Soup"},
			}},
		},
		{
			name:     "no match is an empty list",
			tool:     NewIngredientSearch(lookup),
			input:    map[string]any{"query": "saffron"},
			expected: map[string]any{"results": []any{}},
		},
		{
			name:     "missing query",
			tool:     NewRecipeSearch(lookup),
			input:    map[string]any{},
			expected: map[string]any{"results": []any{}},
		},
		{
			name:     "non-string query",
			tool:     NewRecipeSearch(lookup),
			input:    map[string]any{"query": 42.0},
			expected: map[string]any{"results": []any{}},
		},
		{
			name:     "short query",
			tool:     NewIngredientSearch(lookup),
			input:    map[string]any{"query": "l"},
			expected: map[string]any{"results": []any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.tool.Run(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSearchTool_RunError(t *testing.T) {
	storeErr := errors.New("db down")
	tool := NewIngredientSearch(catalog.NewLookup(&memStore{err: storeErr}))

	_, err := tool.Run(context.Background(), map[string]any{"query": "leek"})
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Contains(t, err.Error(), "ingredient_search")
}

func TestSearchTool_Schemas(t *testing.T) {
	tool := NewHackOrTipSearch(newTestLookup())

	in := tool.InputSchema()
	assert.Equal(t, "object", in.Type)
	assert.Contains(t, in.Properties, "query")
	assert.Equal(t, []string{"query"}, in.Required)

	out := tool.OutputSchema()
	results := out.Properties["results"]
	require.NotNil(t, results)
	require.NotNil(t, results.Items)
	assert.Contains(t, results.Items.Properties, "text")
	assert.Equal(t, []string{"id", "text"}, results.Items.Required)
}
