package tool_stockprice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elee1766/finchat/src/aisdk"
	"github.com/elee1766/finchat/src/findata"
)

func TestCurrentStockPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("ticker") {
		case "AAPL":
			w.Write([]byte(`{"snapshot":{"ticker":"AAPL","price":227.5,"day_change":1.2,"day_change_percent":0.53}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Not Found","message":"ticker not found"}`))
		}
	}))
	defer srv.Close()

	client := findata.NewClient(findata.Config{APIKey: "k", BaseURL: srv.URL, RetryDelay: time.Millisecond})
	tool, err := Tool(client)
	require.NoError(t, err)

	run := func(args string) *aisdk.ToolResponse {
		resp, err := tool.Execute(context.Background(), &aisdk.ToolCall{
			ID:       "call_1",
			Function: aisdk.FunctionCall{Name: Name, Arguments: json.RawMessage(args)},
		})
		require.NoError(t, err)
		return resp
	}

	resp := run(`{"ticker":"AAPL"}`)
	require.False(t, resp.IsError, string(resp.Content))
	var snap findata.PriceSnapshot
	require.NoError(t, json.Unmarshal(resp.Content, &snap))
	assert.Equal(t, 227.5, snap.Price)

	resp = run(`{"ticker":"ZZZZ"}`)
	assert.True(t, resp.IsError)

	resp = run(`{}`)
	assert.True(t, resp.IsError)
	assert.Contains(t, string(resp.Content), "ticker")
}
