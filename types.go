package recipeagent

import (
	"context"

	"recipeagent/recovery"
	"recipeagent/tools"
)

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

// Request asks for a recipe. Requests sharing a SessionID refine the session's previous recipe.
type Request struct {
	SessionID string `json:"session_id"`
	Task      string `json:"task"`
}

type Coordinator interface {
	Run(ctx context.Context, req Request) (recovery.Payload, error)
}
