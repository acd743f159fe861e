package bedrock

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeagent/catalog"
	"recipeagent/recovery"
	"recipeagent/tools"
)

func TestNewPrompt(t *testing.T) {
	registry := tools.NewRegistry(catalog.NewLookup(&countingStore{}))

	p, err := NewPrompt("A leek soup", nil, registry)
	require.NoError(t, err)

	require.Len(t, p.Messages, 2)
	assert.Equal(t, "system", p.Messages[0].Role)
	assert.Contains(t, p.Messages[0].Content.Join(), `"missingSuggestions"`)
	assert.Equal(t, "user", p.Messages[1].Role)
	assert.Equal(t, "A leek soup", p.Messages[1].Content.Join())

	names := make([]string, 0, len(p.Tools))
	for _, tool := range p.Tools {
		names = append(names, tool.Name)
		assert.NotNil(t, tool.InputSchema)
	}
	assert.Equal(t, []string{"framework_category_search", "hack_or_tip_search", "ingredient_search", "recipe_search"}, names)
}

func TestNewPrompt_WithPreviousRecipe(t *testing.T) {
	registry := tools.NewRegistry(catalog.NewLookup(&countingStore{}))
	previous := soupPayload()

	p, err := NewPrompt("less salt", &previous, registry)
	require.NoError(t, err)

	require.Len(t, p.Messages, 2)
	text := p.Messages[1].Content.Join()
	assert.True(t, strings.HasPrefix(text, "CURRENT RECIPE"))
	assert.Contains(t, text, `"title":"Leek Soup"`)
	assert.True(t, strings.HasSuffix(text, "REQUEST:\nless salt"))
}

func TestNewPrompt_UnencodablePrevious(t *testing.T) {
	registry := tools.NewRegistry(catalog.NewLookup(&countingStore{}))
	previous := recovery.Payload{Recipe: make(chan int)}

	_, err := NewPrompt("x", &previous, registry)
	assert.Error(t, err)
}

func TestPrompt_LastText(t *testing.T) {
	p := Prompt{Messages: []Message{
		NewTextMessage("user", "first"),
		NewToolResultMessage([]ToolResult{{ToolUseID: "t", Data: map[string]any{}}}),
	}}
	assert.Equal(t, "first", p.LastText(100))

	p.Messages = append(p.Messages, NewTextMessage("user", strings.Repeat("a", 50)))
	assert.Equal(t, strings.Repeat("a", 7)+"...", p.LastText(10))

	assert.Equal(t, "no content", (&Prompt{}).LastText(10))
}
