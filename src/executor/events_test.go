package executor

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/finchat/src/storage"
)

func strPtr(s string) *string { return &s }

func TestFrameWireFormat(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"user message id", UserMessageID{ID: "m1"}, `{"type":"user-message-id","content":"m1"}`},
		{"query loading nil tasks", QueryLoading{IsLoading: false}, `{"type":"query-loading","content":{"isLoading":false,"taskNames":[]}}`},
		{"query loading", QueryLoading{IsLoading: true, TaskNames: []string{"Analyzing your query..."}}, `{"type":"query-loading","content":{"isLoading":true,"taskNames":["Analyzing your query..."]}}`},
		{"tool loading", ToolLoading{Tool: "searchStocksByFilters", IsLoading: true, Message: strPtr("Searching...")}, `{"type":"tool-loading","content":{"tool":"searchStocksByFilters","isLoading":true,"message":"Searching..."}}`},
		{"tool loading done", ToolLoading{Tool: "searchStocksByFilters"}, `{"type":"tool-loading","content":{"tool":"searchStocksByFilters","isLoading":false,"message":null}}`},
		{"kind", DocumentKind{Kind: storage.DocumentCode}, `{"type":"kind","content":"code"}`},
		{"text delta keeps html", TextDelta{Delta: "<b>&</b>"}, `{"type":"text-delta","content":"<b>&</b>"}`},
		{"finish", Finish{}, `{"type":"finish","content":""}`},
		{"annotation", MessageAnnotation{MessageIDFromServer: "a1"}, `{"type":"message-annotation","content":{"messageIdFromServer":"a1"}}`},
		{"tool call without args", ToolCall{ToolCallID: "c1", ToolName: "t"}, `{"type":"tool-call","content":{"toolCallId":"c1","toolName":"t","args":{}}}`},
		{"error", Error{Message: "boom"}, `{"type":"error","content":{"message":"boom"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			sink := NewStreamSink(&buf, nil)
			require.NoError(t, sink.Send(tt.event))
			assert.JSONEq(t, tt.want, buf.String())
			assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\n")))
		})
	}
}

func TestParseFrameRoundTrip(t *testing.T) {
	events := []Event{
		UserMessageID{ID: "m1"},
		QueryLoading{IsLoading: true, TaskNames: []string{"a", "b"}},
		ToolLoading{Tool: "x", IsLoading: true, Message: strPtr("working")},
		DocumentID{ID: "d1"},
		DocumentTitle{Title: "Report"},
		DocumentKind{Kind: storage.DocumentText},
		Clear{Content: "Report"},
		TextDelta{Delta: "hi"},
		CodeDelta{Code: "print(1)"},
		Suggestion{Suggestion: storage.Suggestion{ID: "s1", OriginalText: "a", SuggestedText: "b"}},
		Finish{},
		MessageAnnotation{MessageIDFromServer: "a1"},
		ToolCall{ToolCallID: "c1", ToolName: "t", Args: json.RawMessage(`{"a":1}`)},
		ToolResult{ToolCallID: "c1", ToolName: "t", Result: json.RawMessage(`{"ok":true}`)},
		Error{Message: "boom"},
	}

	for _, ev := range events {
		t.Run(string(ev.EventType()), func(t *testing.T) {
			line, err := json.Marshal(NewFrame(ev))
			require.NoError(t, err)
			got, err := ParseFrame(line)
			require.NoError(t, err)
			assert.Equal(t, ev.EventType(), got.EventType())

			again, err := json.Marshal(NewFrame(got))
			require.NoError(t, err)
			assert.JSONEq(t, string(line), string(again))
		})
	}
}

func TestParseFrameErrors(t *testing.T) {
	_, err := ParseFrame([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseFrame([]byte(`{"type":"nope","content":1}`))
	assert.ErrorContains(t, err, "unknown event type")

	_, err = ParseFrame([]byte(`{"type":"text-delta","content":{"x":1}}`))
	assert.ErrorContains(t, err, "invalid text-delta content")
}
