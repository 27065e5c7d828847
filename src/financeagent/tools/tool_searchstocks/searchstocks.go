package tool_searchstocks

import (
	"context"
	"fmt"
	"slices"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/findata"
)

// Tool name constant
const Name = "searchStocksByFilters"

const loadingMessage = "Searching for stocks matching your criteria..."

const description = `Search for stocks based on financial criteria. Use this tool when asked to find or screen stocks based on financial metrics like revenue, net income, debt, etc. Examples: "stocks with revenue > 50B", "companies with positive net income", "find stocks with low debt". The tool supports comparing metrics like revenue, net_income, total_debt, total_assets, etc. with values using greater than (gt), less than (lt), equal to (eq), and their inclusive variants (gte, lte).`

// Searcher screens companies.
type Searcher interface {
	SearchStocks(ctx context.Context, req findata.SearchRequest) (*findata.SearchResponse, error)
}

// Field is a statement field the screener can filter on.
type Field string

// Enum lists the accepted fields in the parameter schema.
func (Field) Enum() []any {
	out := make([]any, len(findata.SearchFields))
	for i, f := range findata.SearchFields {
		out[i] = f
	}
	return out
}

// Filter is one screening condition.
type Filter struct {
	Field    Field   `json:"field" required:"true" description:"The financial metric to compare"`
	Operator string  `json:"operator" required:"true" enum:"gt,gte,lt,lte,eq" validate:"oneof=gt gte lt lte eq"`
	Value    float64 `json:"value" required:"true"`
}

// Input represents the parameters for searchStocksByFilters
type Input struct {
	Filters []Filter `json:"filters" required:"true" minItems:"1" description:"The filters to search for (e.g. [{field: \"net_income\", operator: \"gt\", value: 1000000000}, {field: \"revenue\", operator: \"gt\", value: 50000000000}])" validate:"min=1,dive"`
	Period  string   `json:"period,omitempty" enum:"quarterly,annual,ttm" description:"The period of the financial metrics to return" validate:"omitempty,oneof=quarterly annual ttm"`
	Limit   int      `json:"limit,omitempty" default:"5" description:"The number of stocks to return" validate:"gte=0"`
	OrderBy string   `json:"order_by,omitempty" enum:"-report_period,report_period" default:"-report_period" description:"The order of the stocks to return" validate:"omitempty,oneof=-report_period report_period"`
}

// SetDefaults fills the optional fields.
func (in *Input) SetDefaults() {
	if in.Period == "" {
		in.Period = string(findata.PeriodTTM)
	}
	if in.Limit == 0 {
		in.Limit = 5
	}
	if in.OrderBy == "" {
		in.OrderBy = "-report_period"
	}
}

// Tool returns the searchStocksByFilters tool. It reports progress to turn
// while the search runs.
func Tool(market Searcher, turn *toolsutil.Turn) (agent.Tool, error) {
	return agent.NewGenericTool(Name, description, func(ctx context.Context, in Input) (*findata.SearchResponse, error) {
		filters := make([]findata.SearchFilter, 0, len(in.Filters))
		for _, f := range in.Filters {
			if !slices.Contains(findata.SearchFields, string(f.Field)) {
				return nil, fmt.Errorf("unsupported filter field %q", f.Field)
			}
			filters = append(filters, findata.SearchFilter{
				Field:    string(f.Field),
				Operator: findata.Operator(f.Operator),
				Value:    f.Value,
			})
		}

		turn.Emit(executor.ToolLoading{Tool: Name, IsLoading: true, Message: toolsutil.Ptr(loadingMessage)})
		defer turn.Emit(executor.ToolLoading{Tool: Name, IsLoading: false})

		return market.SearchStocks(ctx, findata.SearchRequest{
			Filters: filters,
			Period:  findata.Period(in.Period),
			Limit:   in.Limit,
			OrderBy: in.OrderBy,
		})
	})
}
