package findata

import "encoding/json"

// Period is the reporting window of a financial statement.
type Period string

const (
	PeriodAnnual    Period = "annual"
	PeriodQuarterly Period = "quarterly"
	PeriodTTM       Period = "ttm"
)

// Interval is the spacing of historical price points.
type Interval string

const (
	IntervalSecond Interval = "second"
	IntervalMinute Interval = "minute"
	IntervalDay    Interval = "day"
	IntervalWeek   Interval = "week"
	IntervalMonth  Interval = "month"
	IntervalYear   Interval = "year"
)

// PriceSnapshot is the latest quote for a ticker.
type PriceSnapshot struct {
	Ticker           string  `json:"ticker"`
	Price            float64 `json:"price"`
	DayChange        float64 `json:"day_change"`
	DayChangePercent float64 `json:"day_change_percent"`
	Volume           float64 `json:"volume,omitempty"`
	MarketCap        float64 `json:"market_cap,omitempty"`
	Time             string  `json:"time,omitempty"`
}

// Price is one bar of a historical series.
type Price struct {
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
	Time   string  `json:"time"`
}

// PricesRequest selects a historical price series.
type PricesRequest struct {
	Ticker             string
	StartDate          string
	EndDate            string
	Interval           Interval
	IntervalMultiplier int
}

// PricesResponse is returned by GetPrices.
type PricesResponse struct {
	Ticker string  `json:"ticker,omitempty"`
	Prices []Price `json:"prices"`
}

// StatementsRequest selects financial statements or metrics.
type StatementsRequest struct {
	Ticker          string
	Period          Period
	Limit           int
	ReportPeriodLTE string
	ReportPeriodGTE string
}

// Statement is one reported period. Field sets differ per statement kind
// and change over time, so rows are kept as raw JSON objects.
type Statement map[string]json.RawMessage

// StatementKind selects one of the four statement endpoints.
type StatementKind string

const (
	IncomeStatements   StatementKind = "income_statements"
	BalanceSheets      StatementKind = "balance_sheets"
	CashFlowStatements StatementKind = "cash_flow_statements"
	FinancialMetrics   StatementKind = "financial_metrics"
)

func (k StatementKind) path() string {
	switch k {
	case IncomeStatements:
		return "/financials/income-statements/"
	case BalanceSheets:
		return "/financials/balance-sheets/"
	case CashFlowStatements:
		return "/financials/cash-flow-statements/"
	default:
		return "/financial-metrics/"
	}
}

// StatementsResponse carries rows of one statement kind.
type StatementsResponse struct {
	Kind       StatementKind `json:"kind"`
	Statements []Statement   `json:"statements"`
}

// Operator compares a search field with a value.
type Operator string

const (
	OpGT  Operator = "gt"
	OpGTE Operator = "gte"
	OpLT  Operator = "lt"
	OpLTE Operator = "lte"
	OpEQ  Operator = "eq"
)

// SearchFields are the statement fields the search endpoint can filter on.
var SearchFields = []string{
	"revenue",
	"cost_of_revenue",
	"gross_profit",
	"operating_expense",
	"operating_income",
	"interest_expense",
	"ebit",
	"net_income",
	"earnings_per_share",
	"earnings_per_share_diluted",
	"dividends_per_common_share",
	"total_assets",
	"current_assets",
	"cash_and_equivalents",
	"inventory",
	"total_liabilities",
	"current_liabilities",
	"total_debt",
	"shareholders_equity",
	"outstanding_shares",
	"net_cash_flow_from_operations",
	"capital_expenditure",
	"free_cash_flow",
}

// SearchFilter is one screening condition.
type SearchFilter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    float64  `json:"value"`
}

// SearchRequest is the body of the search endpoint.
type SearchRequest struct {
	Filters []SearchFilter `json:"filters"`
	Period  Period         `json:"period"`
	Limit   int            `json:"limit"`
	OrderBy string         `json:"order_by,omitempty"`
}

// SearchResult is one matching company.
type SearchResult struct {
	Ticker       string                     `json:"ticker"`
	ReportPeriod string                     `json:"report_period,omitempty"`
	Period       string                     `json:"period,omitempty"`
	Fields       map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps every returned field besides the known ones.
func (r *SearchResult) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	type plain SearchResult
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = SearchResult(p)
	delete(raw, "ticker")
	delete(raw, "report_period")
	delete(raw, "period")
	if len(raw) > 0 {
		r.Fields = raw
	}
	return nil
}

// MarshalJSON flattens Fields back next to the known keys.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["ticker"] = r.Ticker
	if r.ReportPeriod != "" {
		out["report_period"] = r.ReportPeriod
	}
	if r.Period != "" {
		out["period"] = r.Period
	}
	return json.Marshal(out)
}

// SearchResponse is returned by SearchStocks.
type SearchResponse struct {
	Results []SearchResult `json:"search_results"`
}
