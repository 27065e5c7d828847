package tool_searchstocks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/findata"
)

func call(args string) *aisdk.ToolCall {
	return &aisdk.ToolCall{ID: "call_1", Type: "function", Function: aisdk.FunctionCall{Name: Name, Arguments: json.RawMessage(args)}}
}

func TestSearchStocks(t *testing.T) {
	var got findata.SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/financials/search/", r.URL.Path)
		assert.Equal(t, "market-key", r.Header.Get("X-API-Key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"search_results":[{"ticker":"AAPL","report_period":"2024-09-28","revenue":391035000000}]}`))
	}))
	defer srv.Close()

	client := findata.NewClient(findata.Config{APIKey: "market-key", BaseURL: srv.URL, RetryDelay: time.Millisecond})
	sink := executor.NewCollectingSink()
	tool, err := Tool(client, &toolsutil.Turn{Sink: sink})
	require.NoError(t, err)

	resp, err := tool.Execute(context.Background(), call(`{"filters":[{"field":"revenue","operator":"gt","value":50000000000}]}`))
	require.NoError(t, err)
	require.False(t, resp.IsError, string(resp.Content))

	assert.Equal(t, findata.PeriodTTM, got.Period)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, "-report_period", got.OrderBy)
	require.Len(t, got.Filters, 1)
	assert.Equal(t, findata.OpGT, got.Filters[0].Operator)

	var out findata.SearchResponse
	require.NoError(t, json.Unmarshal(resp.Content, &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "AAPL", out.Results[0].Ticker)
	assert.Contains(t, out.Results[0].Fields, "revenue")

	events := sink.Events()
	require.Len(t, events, 2)
	start := events[0].(executor.ToolLoading)
	assert.True(t, start.IsLoading)
	require.NotNil(t, start.Message)
	assert.Equal(t, loadingMessage, *start.Message)
	assert.Equal(t, executor.ToolLoading{Tool: Name, IsLoading: false}, events[1])
}

func TestSearchStocksRejectsBadInput(t *testing.T) {
	tool, err := Tool(nil, &toolsutil.Turn{})
	require.NoError(t, err)

	tests := []struct {
		name string
		args string
		want string
	}{
		{"no filters", `{}`, "filters"},
		{"empty filters", `{"filters":[]}`, "filters"},
		{"bad operator", `{"filters":[{"field":"revenue","operator":"between","value":1}]}`, "operator"},
		{"unknown field", `{"filters":[{"field":"vibes","operator":"gt","value":1}]}`, "vibes"},
		{"bad period", `{"filters":[{"field":"revenue","operator":"gt","value":1}],"period":"weekly"}`, "period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := tool.Execute(context.Background(), call(tt.args))
			require.NoError(t, err)
			assert.True(t, resp.IsError)
			assert.Contains(t, string(resp.Content), tt.want)
		})
	}
}

func TestFieldEnumInSchema(t *testing.T) {
	tool, err := Tool(nil, &toolsutil.Turn{})
	require.NoError(t, err)

	raw, err := json.Marshal(tool.GetParameters())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"free_cash_flow"`)
	assert.Contains(t, string(raw), `"minItems":1`)
}
