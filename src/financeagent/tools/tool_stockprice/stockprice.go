package tool_stockprice

import (
	"context"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/findata"
)

// Tool name constant
const Name = "getCurrentStockPrice"

const description = "Use this tool to get the current price snapshot of a stock only"

// SnapshotGetter fetches the latest quote for a ticker.
type SnapshotGetter interface {
	GetPriceSnapshot(ctx context.Context, ticker string) (*findata.PriceSnapshot, error)
}

// Input represents the parameters for getCurrentStockPrice
type Input struct {
	Ticker string `json:"ticker" required:"true" description:"The ticker of the company to get the latest price for"`
}

// Tool returns the getCurrentStockPrice tool.
func Tool(market SnapshotGetter) (agent.Tool, error) {
	return agent.NewGenericTool(Name, description, func(ctx context.Context, in Input) (*findata.PriceSnapshot, error) {
		return market.GetPriceSnapshot(ctx, in.Ticker)
	})
}
