// Package financeagent assembles the finance assistant: its system prompt
// and the toolbox each chat turn runs with.
package financeagent

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/executor"
	"github.com/elee1766/finchat/src/financeagent/tools"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/findata"
)

// Deps are the long-lived dependencies shared by every turn.
type Deps struct {
	DB *sql.DB
	// Market is the client template. Its APIKey is replaced by the key the
	// turn's credentials resolve to.
	Market findata.Config
	// HTTPClient is used by fetchWebPage; nil gets a default client.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewToolboxFactory returns an executor.ToolboxFactory that registers every
// finance tool for the requesting user.
func NewToolboxFactory(deps Deps) executor.ToolboxFactory {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	toolsutil.SetLogger(deps.Logger.With("component", "tools"))

	return func(ctx context.Context, req executor.ToolboxRequest) (*agent.DefaultToolbox, error) {
		market := deps.Market
		market.APIKey = req.Credentials.MarketData
		if market.Logger == nil {
			market.Logger = deps.Logger
		}

		logger := req.Logger
		if logger == nil {
			logger = deps.Logger
		}
		turn := &toolsutil.Turn{
			UserID: req.UserID,
			Model:  req.Model,
			Sink:   req.Sink,
			DB:     deps.DB,
			Logger: logger,
		}
		return BuildToolbox(findata.NewClient(market), deps.HTTPClient, turn)
	}
}

// BuildToolbox registers all finance tools bound to one market client and
// one turn.
func BuildToolbox(market *findata.Client, httpClient *http.Client, turn *toolsutil.Turn) (*agent.DefaultToolbox, error) {
	all, err := tools.StatementTools(market)
	if err != nil {
		return nil, err
	}
	for _, build := range []func() (agent.Tool, error){
		func() (agent.Tool, error) { return tools.CurrentStockPriceTool(market) },
		func() (agent.Tool, error) { return tools.StockPricesTool(market) },
		func() (agent.Tool, error) { return tools.SearchStocksTool(market, turn) },
		func() (agent.Tool, error) { return tools.CreateDocumentTool(turn) },
		func() (agent.Tool, error) { return tools.UpdateDocumentTool(turn) },
		func() (agent.Tool, error) { return tools.RequestSuggestionsTool(turn) },
		func() (agent.Tool, error) { return tools.FetchWebPageTool(httpClient, turn) },
	} {
		t, err := build()
		if err != nil {
			return nil, err
		}
		all = append(all, t)
	}

	toolbox := agent.NewToolbox[agent.Tool]()
	for _, t := range all {
		if err := toolbox.RegisterTool(t); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", t.GetName(), err)
		}
	}
	return toolbox, nil
}
