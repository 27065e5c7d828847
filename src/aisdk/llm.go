package aisdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
)

// Generator is the part of a langchaingo model the adapters call. Every
// langchaingo llms.Model satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// stepResult is the outcome of one model round.
type stepResult struct {
	Text      string
	ToolCalls []ToolCall
}

func toLLMMessages(system string, msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs)+1)
	if system != "" {
		out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if m.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: string(argumentsOrEmpty(tc.Function.Arguments)),
					},
				})
			}
			if len(mc.Parts) == 0 {
				continue
			}
			out = append(out, mc)
		case RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Name:       m.Name,
					Content:    m.Content,
				}},
			})
		}
	}
	return out
}

func toLLMTools(tools []*ChatTool) []llms.Tool {
	out := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		if t == nil {
			continue
		}
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	return out
}

func fromLLMResponse(resp *llms.ContentResponse) (stepResult, error) {
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return stepResult{}, ErrEmptyResponse
	}
	var res stepResult
	for i, choice := range resp.Choices {
		if choice == nil {
			continue
		}
		// Only the first choice carries text; some vendors split tool calls
		// across choices.
		if i == 0 {
			res.Text = choice.Content
		}
		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			id := tc.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			res.ToolCalls = append(res.ToolCalls, ToolCall{
				ID:   id,
				Type: "function",
				Function: FunctionCall{
					Name:      tc.FunctionCall.Name,
					Arguments: argumentsOrEmpty(json.RawMessage(tc.FunctionCall.Arguments)),
				},
			})
		}
	}
	return res, nil
}

func argumentsOrEmpty(args json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(args)) == 0 {
		return json.RawMessage("{}")
	}
	return args
}

// isToolCallChunk reports whether a streamed chunk is the serialized tool
// call delta langchaingo passes to the streaming func instead of text.
func isToolCallChunk(chunk []byte) bool {
	trimmed := bytes.TrimSpace(chunk)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[1] != '{' || !json.Valid(trimmed) {
		return false
	}
	var calls []struct {
		Type     string          `json:"type"`
		Function json.RawMessage `json:"function"`
	}
	if err := json.Unmarshal(trimmed, &calls); err != nil {
		return false
	}
	for _, c := range calls {
		if c.Type == "function" || len(c.Function) > 0 {
			return true
		}
	}
	return false
}

// ResultFromResponse converts an executor outcome into the result fed back
// to the model. Executor errors become error results, never stream errors.
func ResultFromResponse(call *ToolCall, resp *ToolResponse, err error) ToolResult {
	result := ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Args:       call.Function.Arguments,
	}
	switch {
	case err != nil:
		result.IsError = true
		result.Result = errorJSON(err.Error())
	case resp == nil:
		result.Result = json.RawMessage("null")
	default:
		result.IsError = resp.IsError
		if json.Valid(resp.Content) {
			result.Result = json.RawMessage(resp.Content)
		} else {
			b, _ := json.Marshal(string(resp.Content))
			result.Result = b
		}
		if resp.IsError && !bytes.HasPrefix(bytes.TrimSpace(result.Result), []byte("{")) {
			result.Result = errorJSON(string(resp.Content))
		}
	}
	return result
}

func errorJSON(msg string) json.RawMessage {
	b, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return json.RawMessage(fmt.Sprintf(`{"error":%q}`, msg))
	}
	return b
}
