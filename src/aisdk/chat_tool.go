package aisdk

import (
	jsonschema "github.com/swaggest/jsonschema-go"
)

// ChatTool represents a tool in the format expected by chat completion APIs
type ChatTool struct {
	Type     string       `json:"type"` // Always "function" for function tools
	Function ToolFunction `json:"function"`
}

// NewChatTool builds a function tool definition.
func NewChatTool(name, description string, params *jsonschema.Schema) *ChatTool {
	return &ChatTool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}
