package agent

import (
	"context"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/finchat/src/aisdk"
)

// Tool is the interface that all tools must implement
type Tool interface {
	// GetType returns the tool type (always "function" for now)
	GetType() string

	// GetName returns the tool's name
	GetName() string

	// GetDescription returns the text the model reads to decide when to call the tool.
	GetDescription() string

	// GetParameters returns the JSON schema for the tool's parameters
	GetParameters() *jsonschema.Schema

	// Execute runs the tool. Failures the model should see are returned as an
	// error response with a nil error.
	Execute(ctx context.Context, call *aisdk.ToolCall) (*aisdk.ToolResponse, error)
}
