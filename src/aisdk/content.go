package aisdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ContentPart is one element of a stored message body.
type ContentPart struct {
	Type       string          `json:"type"` // text | tool-call | tool-result
	Text       string          `json:"text,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	ToolName   string          `json:"toolName,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	IsError    bool            `json:"isError,omitempty"`
}

const (
	ContentText       = "text"
	ContentToolCall   = "tool-call"
	ContentToolResult = "tool-result"
)

// EncodeContent serializes a message body for storage. Plain user text is
// stored as a JSON string; anything with tool traffic is stored as parts.
func EncodeContent(m Message) (json.RawMessage, error) {
	switch {
	case m.Role == RoleTool:
		return json.Marshal([]ContentPart{{
			Type:       ContentToolResult,
			ToolCallID: m.ToolCallID,
			ToolName:   m.Name,
			Result:     jsonOrString(m.Content),
		}})
	case len(m.ToolCalls) > 0:
		parts := make([]ContentPart, 0, len(m.ToolCalls)+1)
		if m.Content != "" {
			parts = append(parts, ContentPart{Type: ContentText, Text: m.Content})
		}
		for _, tc := range m.ToolCalls {
			parts = append(parts, ContentPart{
				Type:       ContentToolCall,
				ToolCallID: tc.ID,
				ToolName:   tc.Function.Name,
				Args:       argumentsOrEmpty(tc.Function.Arguments),
			})
		}
		return json.Marshal(parts)
	default:
		return json.Marshal(m.Content)
	}
}

// DecodeContent is the inverse of EncodeContent. It also accepts the part
// arrays clients send, where a user message may be split into text parts.
// A tool body with several results yields one message per result.
func DecodeContent(role Role, raw json.RawMessage) ([]Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Message{{Role: role}}, nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, fmt.Errorf("decode content: %w", err)
		}
		return []Message{{Role: role, Content: text}}, nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(trimmed, &parts); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}

	if role == RoleTool {
		out := make([]Message, 0, len(parts))
		for _, p := range parts {
			if p.Type != ContentToolResult {
				continue
			}
			out = append(out, Message{
				Role:       RoleTool,
				Name:       p.ToolName,
				ToolCallID: p.ToolCallID,
				Content:    resultText(p.Result),
			})
		}
		return out, nil
	}

	m := Message{Role: role}
	var text strings.Builder
	for _, p := range parts {
		switch p.Type {
		case ContentText:
			text.WriteString(p.Text)
		case ContentToolCall:
			m.ToolCalls = append(m.ToolCalls, ToolCall{
				ID:   p.ToolCallID,
				Type: "function",
				Function: FunctionCall{
					Name:      p.ToolName,
					Arguments: argumentsOrEmpty(p.Args),
				},
			})
		}
	}
	m.Content = text.String()
	return []Message{m}, nil
}

// TextOf returns the plain text of a stored body, ignoring tool parts.
func TextOf(raw json.RawMessage) string {
	msgs, err := DecodeContent(RoleUser, raw)
	if err != nil || len(msgs) == 0 {
		return ""
	}
	return msgs[0].Content
}

func jsonOrString(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}

func resultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}
