// Package aisdk normalizes the chat APIs of several model vendors behind one
// streaming language-model interface.
package aisdk

import (
	"context"
	"encoding/json"
	"time"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Name is required for tool responses to identify the function
	Name string `json:"name,omitempty"`
	// ToolCallID is required for tool responses to reference the original call
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCalls contains function calls requested by the assistant.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// ToolFunction represents the actual function definition within a tool
type ToolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// ToolExecutor is a function that executes a tool with given parameters
type ToolExecutor func(ctx context.Context, call *ToolCall) (*ToolResponse, error)

// ToolCall represents a function call request from the model (OpenAI format).
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // Always "function" for now
	Function FunctionCall `json:"function"`
}

// FunctionCall contains the function name and arguments.
type FunctionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResponse is what a tool hands back to the model.
type ToolResponse struct {
	Type     string `json:"type"`
	Content  []byte `json:"content"`
	Metadata string `json:"metadata,omitempty"`
	IsError  bool   `json:"is_error"`
}

// ToolResult pairs a tool call with the value it produced.
type ToolResult struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args"`
	Result     json.RawMessage `json:"result"`
	IsError    bool            `json:"isError,omitempty"`
}

// PartType identifies a stream part.
type PartType string

const (
	PartTextDelta  PartType = "text-delta"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
	PartError      PartType = "error"
)

// StreamPart is one element of a StreamText sequence.
type StreamPart struct {
	Type       PartType
	TextDelta  string
	ToolCall   *ToolCall
	ToolResult *ToolResult
	Err        error
	// Step is the zero based model round that produced the part.
	Step int
}

// ObjectOutput selects the shape StreamObject asks the model for.
type ObjectOutput string

const (
	OutputObject ObjectOutput = "object"
	OutputArray  ObjectOutput = "array"
)

// ObjectMode is the structured output mechanism an adapter uses.
type ObjectMode string

const ObjectModeJSON ObjectMode = "json"

// TextRequest is the input to GenerateText and StreamText.
type TextRequest struct {
	System   string
	Messages []Message
	Tools    []*ChatTool
	// Executor runs tool calls issued by the model. Without one, tool calls
	// end the stream after they are reported.
	Executor ToolExecutor
	// MaxSteps bounds the number of model rounds. Values below one mean one.
	MaxSteps int
}

// ObjectRequest is the input to StreamObject.
type ObjectRequest struct {
	System string
	Prompt string
	Schema *jsonschema.Schema
	Output ObjectOutput
	// Fallback replaces the result when the model output is not valid JSON.
	Fallback json.RawMessage
}
