package tool_stockprices

import (
	"context"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/findata"
)

// Tool name constant
const Name = "getStockPrices"

const description = "Use this tool to get stock prices for a company over a time period"

// PriceGetter fetches a historical price series.
type PriceGetter interface {
	GetPrices(ctx context.Context, req findata.PricesRequest) (*findata.PricesResponse, error)
}

// Input represents the parameters for getStockPrices
type Input struct {
	Ticker             string `json:"ticker" required:"true" description:"The ticker of the company to get historical prices for"`
	StartDate          string `json:"start_date" required:"true" description:"The start date for historical prices (YYYY-MM-DD)" validate:"datetime=2006-01-02"`
	EndDate            string `json:"end_date" required:"true" description:"The end date for historical prices (YYYY-MM-DD)" validate:"datetime=2006-01-02"`
	Interval           string `json:"interval,omitempty" enum:"second,minute,day,week,month,year" default:"day" description:"The interval between price points (e.g. second, minute, day, week, month, year)" validate:"oneof=second minute day week month year"`
	IntervalMultiplier int    `json:"interval_multiplier,omitempty" default:"1" description:"The multiplier for the interval (e.g. 1 for second, 60 for minute, 1 for day, 7 for week, 1 for month, 1 for year)"`
}

// SetDefaults fills the optional fields.
func (in *Input) SetDefaults() {
	if in.Interval == "" {
		in.Interval = string(findata.IntervalDay)
	}
	if in.IntervalMultiplier <= 0 {
		in.IntervalMultiplier = 1
	}
}

// Tool returns the getStockPrices tool.
func Tool(market PriceGetter) (agent.Tool, error) {
	return agent.NewGenericTool(Name, description, func(ctx context.Context, in Input) (*findata.PricesResponse, error) {
		return market.GetPrices(ctx, findata.PricesRequest{
			Ticker:             in.Ticker,
			StartDate:          in.StartDate,
			EndDate:            in.EndDate,
			Interval:           findata.Interval(in.Interval),
			IntervalMultiplier: in.IntervalMultiplier,
		})
	})
}
