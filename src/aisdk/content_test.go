package aisdk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "user text",
			msg:  Message{Role: RoleUser, Content: "What is AAPL's current price?"},
		},
		{
			name: "assistant with tool call",
			msg: Message{Role: RoleAssistant, Content: "Let me check.", ToolCalls: []ToolCall{{
				ID: "call_1", Type: "function",
				Function: FunctionCall{Name: "getCurrentStockPrice", Arguments: json.RawMessage(`{"ticker":"AAPL"}`)},
			}}},
		},
		{
			name: "tool result",
			msg:  Message{Role: RoleTool, Name: "getCurrentStockPrice", ToolCallID: "call_1", Content: `{"price":190}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeContent(tt.msg)
			require.NoError(t, err)
			require.True(t, json.Valid(raw))

			got, err := DecodeContent(tt.msg.Role, raw)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.msg.Content, got[0].Content)
			assert.Equal(t, tt.msg.ToolCallID, got[0].ToolCallID)
			require.Len(t, got[0].ToolCalls, len(tt.msg.ToolCalls))
			for i := range tt.msg.ToolCalls {
				assert.Equal(t, tt.msg.ToolCalls[i].ID, got[0].ToolCalls[i].ID)
				assert.JSONEq(t, string(tt.msg.ToolCalls[i].Function.Arguments), string(got[0].ToolCalls[i].Function.Arguments))
			}
		})
	}
}

func TestDecodeContentClientParts(t *testing.T) {
	raw := json.RawMessage(`[{"type":"text","text":"Compare "},{"type":"text","text":"MSFT and AAPL"}]`)
	msgs, err := DecodeContent(RoleUser, raw)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Compare MSFT and AAPL", msgs[0].Content)
	assert.Equal(t, "Compare MSFT and AAPL", TextOf(raw))
}

func TestDecodeContentMultipleToolResults(t *testing.T) {
	raw := json.RawMessage(`[{"type":"tool-result","toolCallId":"a","toolName":"x","result":1},{"type":"tool-result","toolCallId":"b","toolName":"y","result":{"ok":true}}]`)
	msgs, err := DecodeContent(RoleTool, raw)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[1].ToolCallID)
	assert.JSONEq(t, `{"ok":true}`, msgs[1].Content)
}

func TestDecodeContentInvalid(t *testing.T) {
	_, err := DecodeContent(RoleUser, json.RawMessage(`{"not":"parts"}`))
	assert.Error(t, err)
}

func TestCredentialsMerge(t *testing.T) {
	user := Credentials{Anthropic: "user-anthropic"}
	server := Credentials{OpenAI: "srv-openai", Anthropic: "srv-anthropic", MarketData: "srv-fd"}

	got := user.Merge(server)
	assert.Equal(t, "srv-openai", got.OpenAI)
	assert.Equal(t, "user-anthropic", got.Anthropic)
	assert.Equal(t, "srv-fd", got.MarketData)
	assert.Equal(t, "user-anthropic", got.KeyFor(ProviderClaude))
	assert.Empty(t, got.KeyFor(ProviderGemini))
}

func TestLookupModel(t *testing.T) {
	m, err := LookupModel("gemini-1.5-pro")
	require.NoError(t, err)
	assert.Equal(t, "gemini-pro", m.APIIdentifier)
	assert.Equal(t, ProviderGemini, m.Provider)

	_, err = LookupModel("gpt-5")
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = LookupModel(DefaultModelID)
	assert.NoError(t, err)
	assert.Equal(t, []Provider{ProviderClaude, ProviderGemini, ProviderOpenAI}, Providers())
}
