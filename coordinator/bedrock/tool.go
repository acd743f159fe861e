package bedrock

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

// Tool is the model-facing declaration of a tools.Tool.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}
