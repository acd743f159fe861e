package tools

import (
	"fmt"
	"sort"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a registry holding the four catalog search tools.
func NewRegistry(lookup Lookup) *Registry {
	registry := Registry{}
	for _, tool := range []Tool{
		NewIngredientSearch(lookup),
		NewHackOrTipSearch(lookup),
		NewFrameworkCategorySearch(lookup),
		NewRecipeSearch(lookup),
	} {
		registry[tool.Name()] = tool
	}
	return &registry
}

// GetTools returns all tools in the registry ordered by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
