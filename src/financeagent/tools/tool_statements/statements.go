// Package tool_statements provides the four financial statement tools. They
// share one input shape and differ only in the endpoint they read.
package tool_statements

import (
	"context"
	"fmt"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/findata"
)

// Tool name constants
const (
	IncomeStatementsName   = "getIncomeStatements"
	BalanceSheetsName      = "getBalanceSheets"
	CashFlowStatementsName = "getCashFlowStatements"
	FinancialMetricsName   = "getFinancialMetrics"
)

// StatementGetter fetches one kind of statement.
type StatementGetter interface {
	GetStatements(ctx context.Context, kind findata.StatementKind, req findata.StatementsRequest) (*findata.StatementsResponse, error)
}

// Input represents the parameters of every statement tool
type Input struct {
	Ticker          string `json:"ticker" required:"true" description:"The ticker of the company"`
	Period          string `json:"period,omitempty" enum:"quarterly,annual,ttm" default:"ttm" description:"The period of the statements to return" validate:"oneof=quarterly annual ttm"`
	Limit           int    `json:"limit,omitempty" default:"1" description:"The number of statements to return" validate:"gte=0"`
	ReportPeriodLTE string `json:"report_period_lte,omitempty" description:"The less than or equal to date of the statements to return. This lets us bound the data by date."`
	ReportPeriodGTE string `json:"report_period_gte,omitempty" description:"The greater than or equal to date of the statements to return. This lets us bound the data by date."`
}

// SetDefaults fills the optional fields.
func (in *Input) SetDefaults() {
	if in.Period == "" {
		in.Period = string(findata.PeriodTTM)
	}
	if in.Limit == 0 {
		in.Limit = 1
	}
}

type endpoint struct {
	name        string
	kind        findata.StatementKind
	description string
}

var endpoints = []endpoint{
	{IncomeStatementsName, findata.IncomeStatements, "Get the income statements of a company"},
	{BalanceSheetsName, findata.BalanceSheets, "Get the balance sheets of a company"},
	{CashFlowStatementsName, findata.CashFlowStatements, "Get the cash flow statements of a company"},
	{FinancialMetricsName, findata.FinancialMetrics, "Get the financial metrics of a company. These financial metrics are derived metrics like P/E ratio, operating income, etc. that cannot be found in the income statement, balance sheet, or cash flow statement."},
}

// Tool returns the statement tool called name.
func Tool(name string, market StatementGetter) (agent.Tool, error) {
	for _, s := range endpoints {
		if s.name != name {
			continue
		}
		kind := s.kind
		return agent.NewGenericTool(s.name, s.description, func(ctx context.Context, in Input) (*findata.StatementsResponse, error) {
			return market.GetStatements(ctx, kind, findata.StatementsRequest{
				Ticker:          in.Ticker,
				Period:          findata.Period(in.Period),
				Limit:           in.Limit,
				ReportPeriodLTE: in.ReportPeriodLTE,
				ReportPeriodGTE: in.ReportPeriodGTE,
			})
		})
	}
	return nil, fmt.Errorf("unknown statement tool %q", name)
}

// Tools returns all four statement tools.
func Tools(market StatementGetter) ([]agent.Tool, error) {
	out := make([]agent.Tool, 0, len(endpoints))
	for _, s := range endpoints {
		t, err := Tool(s.name, market)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
