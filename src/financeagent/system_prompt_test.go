package financeagent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/finchat/src/agent"
	"github.com/elee1766/finchat/src/financeagent/toolsutil"
	"github.com/elee1766/finchat/src/findata"
)

func simple(t string) *jsonschema.Type {
	st := jsonschema.SimpleType(t)
	return &jsonschema.Type{SimpleTypes: &st}
}

func TestFormatSchemaForPrompt(t *testing.T) {
	tests := []struct {
		name     string
		schema   *jsonschema.Schema
		expected []string
	}{
		{
			name:     "simple string schema",
			schema:   &jsonschema.Schema{Type: simple("string"), Description: toolsutil.Ptr("A ticker")},
			expected: []string{"# A ticker", "string"},
		},
		{
			name: "object with properties",
			schema: &jsonschema.Schema{
				Type: simple("object"),
				Properties: map[string]jsonschema.SchemaOrBool{
					"ticker": {TypeObject: &jsonschema.Schema{Type: simple("string"), Description: toolsutil.Ptr("The ticker")}},
					"limit":  {TypeObject: &jsonschema.Schema{Type: simple("integer")}},
				},
				Required: []string{"ticker"},
			},
			expected: []string{
				"object (required: ticker)",
				"  limit: integer\n  ticker: string # The ticker",
			},
		},
		{
			name:     "enum field",
			schema:   &jsonschema.Schema{Type: simple("string"), Enum: []interface{}{"annual", "quarterly", "ttm"}},
			expected: []string{`string (enum: "annual" | "quarterly" | "ttm")`},
		},
		{
			name: "array with items",
			schema: &jsonschema.Schema{
				Type: simple("array"),
				Items: &jsonschema.Items{SchemaOrBool: &jsonschema.SchemaOrBool{
					TypeObject: &jsonschema.Schema{Type: simple("number")},
				}},
			},
			expected: []string{"array", "items: number"},
		},
		{
			name:     "nil schema",
			schema:   nil,
			expected: []string{"unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSchemaForPrompt(tt.schema, 0)
			for _, want := range tt.expected {
				assert.Contains(t, result, want)
			}
		})
	}
}

func TestGenerateSystemPrompt(t *testing.T) {
	now := time.Date(2024, 11, 4, 15, 0, 0, 0, time.UTC)

	empty := GenerateSystemPrompt(agent.NewToolbox[agent.Tool](), now)
	for _, section := range []string{
		"You are a financial assistant",
		"# Tone and style",
		"# Tool usage policy",
		"# Documents",
		"Today's date: 2024-11-04",
		"Day of week: Monday",
		"No tools available.",
	} {
		assert.Contains(t, empty, section)
	}

	toolbox, err := BuildToolbox(findata.NewClient(findata.Config{}), nil, &toolsutil.Turn{})
	require.NoError(t, err)
	full := GenerateSystemPrompt(toolbox, now)
	for _, want := range []string{
		"Tool: getStockPrices",
		`interval: string (enum: "second" | "minute" | "day" | "week" | "month" | "year") (default: day)`,
		"Tool: searchStocksByFilters",
		`"free_cash_flow"`,
		"Tool: createDocument",
	} {
		assert.Contains(t, full, want)
	}
}

func TestPromptFunc(t *testing.T) {
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	prompt := PromptFunc(func() time.Time { return now })
	assert.Contains(t, prompt(nil), "Today's date: 2025-01-02")
}
