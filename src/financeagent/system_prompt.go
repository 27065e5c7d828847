package financeagent

import (
	"fmt"
	"sort"
	"strings"
	"time"

	jsonschema "github.com/swaggest/jsonschema-go"

	"github.com/elee1766/finchat/src/agent"
)

const (
	mainPromptTemplate = `You are a financial assistant inside a personal finance app. You help users understand stocks, companies and their own money.

You have expertise in:
- stock market analysis
- company financial statements
- investment strategies and risk management
- personal financial planning

IMPORTANT: Never invent prices, statements or figures. Use the market data tools for anything that depends on current or historical data, and say so when the data is unavailable.
IMPORTANT: You are not a licensed advisor. Give balanced, educational answers that name the risks, and do not promise returns.`

	toneAndStyleSection = `# Tone and style
Be concise and direct. Lead with the answer, then the supporting numbers.
Your responses are rendered as GitHub-flavored markdown. Use tables for comparisons across companies or periods.
Quote figures with their unit and reporting period, e.g. "revenue of $94.9B for the quarter ending 2024-09-28".`

	toolUsagePolicySection = `# Tool usage policy
- Use getCurrentStockPrice for the latest quote and getStockPrices for a price history over a date range.
- Use the statement tools (income statements, balance sheets, cash flow statements, financial metrics) for fundamentals. Ask for more than one period when the user asks about trends.
- Use searchStocksByFilters to screen companies by fundamentals. Convert phrases like "50B" into plain numbers.
- Use fetchWebPage only for URLs the user gave you or that a tool returned.
- Do not call the same tool twice with the same arguments in one answer; repeated calls are skipped.
- You can call several independent tools in one step.

# Documents
- Use createDocument when the user asks for a report, a write-up or code they can keep. Use kind "code" for code and "text" otherwise.
- After creating or updating a document, do not repeat its content in your answer. The user can already see it.
- Use updateDocument to change a document the user refers to, and requestSuggestions when they ask for feedback on one.`
)

// environmentInfo tells the model what day it is so relative dates in
// questions can be turned into tool arguments.
func environmentInfo(now time.Time) string {
	return fmt.Sprintf(`Here is useful information about the environment you are running in:
<env>
Today's date: %s
Day of week: %s
</env>`, now.Format("2006-01-02"), now.Weekday())
}

// schemaType returns the first simple type of s, defaulting to object.
func schemaType(s *jsonschema.Schema) string {
	if s.Type != nil {
		if s.Type.SimpleTypes != nil {
			return string(*s.Type.SimpleTypes)
		}
		if len(s.Type.SliceOfSimpleTypeValues) > 0 {
			return string(s.Type.SliceOfSimpleTypeValues[0])
		}
	}
	return "object"
}

func formatEnum(values []interface{}) string {
	strs := make([]string, len(values))
	for i, e := range values {
		strs[i] = fmt.Sprintf(`"%v"`, e)
	}
	return fmt.Sprintf("(enum: %s)", strings.Join(strs, " | "))
}

// formatSchemaForPrompt formats a JSON schema for display in the prompt
func formatSchemaForPrompt(schema *jsonschema.Schema, indentLevel int) string {
	if schema == nil {
		return "unknown"
	}

	indent := strings.Repeat("  ", indentLevel)
	var parts []string

	if schema.Description != nil && *schema.Description != "" {
		parts = append(parts, fmt.Sprintf("%s# %s", indent, *schema.Description))
	}

	typeLine := indent + schemaType(schema)
	if len(schema.Enum) > 0 {
		typeLine += " " + formatEnum(schema.Enum)
	}
	if schema.Items == nil && len(schema.Properties) > 0 && len(schema.Required) > 0 {
		typeLine += fmt.Sprintf(" (required: %s)", strings.Join(schema.Required, ", "))
	}
	parts = append(parts, typeLine)

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := schema.Properties[name].TypeObject
		if prop == nil {
			continue
		}
		line := fmt.Sprintf("%s  %s: %s", indent, name, schemaType(prop))
		if len(prop.Enum) > 0 {
			line += " " + formatEnum(prop.Enum)
		}
		if prop.Default != nil {
			line += fmt.Sprintf(" (default: %v)", *prop.Default)
		}
		if prop.Description != nil && *prop.Description != "" {
			line += " # " + *prop.Description
		}
		parts = append(parts, line)

		// Nested array items, e.g. search filters.
		if prop.Items != nil && prop.Items.SchemaOrBool != nil && prop.Items.SchemaOrBool.TypeObject != nil {
			item := formatSchemaForPrompt(prop.Items.SchemaOrBool.TypeObject, indentLevel+2)
			parts = append(parts, fmt.Sprintf("%s    items:\n%s", indent, item))
		}
	}

	if schema.Items != nil && schema.Items.SchemaOrBool != nil && schema.Items.SchemaOrBool.TypeObject != nil {
		item := formatSchemaForPrompt(schema.Items.SchemaOrBool.TypeObject, indentLevel+1)
		parts = append(parts, fmt.Sprintf("%s  items: %s", indent, strings.TrimSpace(item)))
	}

	return strings.Join(parts, "\n")
}

// formatToolsForPrompt formats tools for display in the prompt
func formatToolsForPrompt(toolbox *agent.DefaultToolbox) string {
	if toolbox == nil {
		return "No tools available."
	}
	tools := toolbox.Tools()
	if len(tools) == 0 {
		return "No tools available."
	}

	toolStrings := make([]string, 0, len(tools))
	for _, tool := range tools {
		parts := []string{
			"Tool: " + tool.GetName(),
			"Description: " + tool.GetDescription(),
			"Input Schema:",
		}
		if tool.GetParameters() != nil {
			parts = append(parts, formatSchemaForPrompt(tool.GetParameters(), 1))
		} else {
			parts = append(parts, "  # No schema defined")
		}
		toolStrings = append(toolStrings, strings.Join(parts, "\n"))
	}

	return fmt.Sprintf("You have access to the following tools:\n\n%s", strings.Join(toolStrings, "\n\n---\n\n"))
}

// GenerateSystemPrompt assembles all sections into the final system prompt
func GenerateSystemPrompt(toolbox *agent.DefaultToolbox, now time.Time) string {
	sections := []string{
		mainPromptTemplate,
		toneAndStyleSection,
		toolUsagePolicySection,
		environmentInfo(now),
		formatToolsForPrompt(toolbox),
	}
	return strings.Join(sections, "\n\n")
}

// PromptFunc returns a per-turn prompt builder that stamps the current date.
func PromptFunc(now func() time.Time) func(*agent.DefaultToolbox) string {
	if now == nil {
		now = time.Now
	}
	return func(toolbox *agent.DefaultToolbox) string {
		return GenerateSystemPrompt(toolbox, now())
	}
}
