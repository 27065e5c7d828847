package findata

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultTickers are shown when no tickers are requested.
var DefaultTickers = []string{"SPY", "QQQ", "DIA", "AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "BRK.B"}

// maxPrefetchConcurrency bounds the requests in flight for one call.
const maxPrefetchConcurrency = 4

// SnapshotResult is the outcome for one ticker.
type SnapshotResult struct {
	Ticker   string         `json:"ticker"`
	Snapshot *PriceSnapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// PrefetchSnapshots fetches every ticker concurrently. Results are in the
// order of tickers; a failed ticker carries its error instead of failing the
// whole call. Only cancellation of ctx is returned as an error.
func PrefetchSnapshots(ctx context.Context, fetcher SnapshotFetcher, tickers []string) ([]SnapshotResult, error) {
	results := make([]SnapshotResult, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPrefetchConcurrency)
	for i, ticker := range tickers {
		g.Go(func() error {
			results[i].Ticker = ticker
			snap, err := fetcher.GetPriceSnapshot(gctx, ticker)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].Error = err.Error()
				return nil
			}
			results[i].Snapshot = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
