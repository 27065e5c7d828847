package tools

// Barrel re-exports so callers can build every finance tool from one import.

import (
	"net/http"

	"github.com/elee1766/finchat/src/agent"
	tool_createdocument "github.com/elee1766/finchat/src/financeagent/tools/tool_createdocument"
	tool_requestsuggestions "github.com/elee1766/finchat/src/financeagent/tools/tool_requestsuggestions"
	tool_searchstocks "github.com/elee1766/finchat/src/financeagent/tools/tool_searchstocks"
	tool_statements "github.com/elee1766/finchat/src/financeagent/tools/tool_statements"
	tool_stockprice "github.com/elee1766/finchat/src/financeagent/tools/tool_stockprice"
	tool_stockprices "github.com/elee1766/finchat/src/financeagent/tools/tool_stockprices"
	tool_updatedocument "github.com/elee1766/finchat/src/financeagent/tools/tool_updatedocument"
	tool_webfetch "github.com/elee1766/finchat/src/financeagent/tools/tool_webfetch"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/findata"
)

// Tool name constants - re-exported from individual packages
const (
	CurrentStockPriceName     = tool_stockprice.Name
	StockPricesName           = tool_stockprices.Name
	IncomeStatementsName      = tool_statements.IncomeStatementsName
	BalanceSheetsName         = tool_statements.BalanceSheetsName
	CashFlowStatementsName    = tool_statements.CashFlowStatementsName
	FinancialMetricsName      = tool_statements.FinancialMetricsName
	SearchStocksByFiltersName = tool_searchstocks.Name
	CreateDocumentName        = tool_createdocument.Name
	UpdateDocumentName        = tool_updatedocument.Name
	RequestSuggestionsName    = tool_requestsuggestions.Name
	FetchWebPageName          = tool_webfetch.Name
)

// Market-data tools
func CurrentStockPriceTool(market *findata.Client) (agent.Tool, error) {
	return tool_stockprice.Tool(market)
}
func StockPricesTool(market *findata.Client) (agent.Tool, error) { return tool_stockprices.Tool(market) }
func StatementTools(market *findata.Client) ([]agent.Tool, error) { return tool_statements.Tools(market) }
func SearchStocksTool(market *findata.Client, turn *toolsutil.Turn) (agent.Tool, error) {
	return tool_searchstocks.Tool(market, turn)
}

// Document tools stream into the turn's sink
func CreateDocumentTool(turn *toolsutil.Turn) (agent.Tool, error) { return tool_createdocument.Tool(turn) }
func UpdateDocumentTool(turn *toolsutil.Turn) (agent.Tool, error) { return tool_updatedocument.Tool(turn) }
func RequestSuggestionsTool(turn *toolsutil.Turn) (agent.Tool, error) {
	return tool_requestsuggestions.Tool(turn)
}

func FetchWebPageTool(client *http.Client, turn *toolsutil.Turn) (agent.Tool, error) {
	return tool_webfetch.Tool(client, turn)
}
