package tool_statements

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

func TestStatementTools(t *testing.T) {
	tests := []struct {
		tool string
		path string
		key  string
	}{
		{IncomeStatementsName, "/financials/income-statements/", "income_statements"},
		{BalanceSheetsName, "/financials/balance-sheets/", "balance_sheets"},
		{CashFlowStatementsName, "/financials/cash-flow-statements/", "cash_flow_statements"},
		{FinancialMetricsName, "/financial-metrics/", "financial_metrics"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				q := r.URL.Query()
				assert.Equal(t, "NVDA", q.Get("ticker"))
				assert.Equal(t, "ttm", q.Get("period"))
				assert.Equal(t, "1", q.Get("limit"))
				assert.Equal(t, "2024-12-31", q.Get("report_period_lte"))
				w.Write([]byte(`{"` + tt.key + `":[{"ticker":"NVDA","report_period":"2024-10-27"}]}`))
			}))
			defer srv.Close()

			client := findata.NewClient(findata.Config{APIKey: "k", BaseURL: srv.URL, RetryDelay: time.Millisecond})
			tool, err := Tool(tt.tool, client)
			require.NoError(t, err)

			resp, err := tool.Execute(context.Background(), &aisdk.ToolCall{
				ID:       "call_1",
				Function: aisdk.FunctionCall{Name: tt.tool, Arguments: json.RawMessage(`{"ticker":"NVDA","report_period_lte":"2024-12-31"}`)},
			})
			require.NoError(t, err)
			require.False(t, resp.IsError, string(resp.Content))

			var out findata.StatementsResponse
			require.NoError(t, json.Unmarshal(resp.Content, &out))
			assert.Equal(t, findata.StatementKind(tt.key), out.Kind)
			assert.Len(t, out.Statements, 1)
		})
	}
}

func TestTools(t *testing.T) {
	tools, err := Tools(nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range tools {
		names = append(names, tool.GetName())
	}
	assert.Equal(t, []string{IncomeStatementsName, BalanceSheetsName, CashFlowStatementsName, FinancialMetricsName}, names)

	_, err = Tool("getDividends", nil)
	assert.Error(t, err)
}
