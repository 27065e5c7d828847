package planner

import "fmt"

const taskPromptTemplate = `Break down this query into small, tightly-scoped sub-tasks: %q
Requirements:
- Include ticker/company name where appropriate
- Include the stock graphs where appropriate
- Use present progressive tense (e.g., "Getting", "Analyzing")
- Keep task names short (max 5 words)
- Make tasks comprehensive but minimal
- Make tasks executable with available tools
- Make a conclusion to advise them if the stock is healthy or not
Example output format:
[
  {"task_name": "Getting current price for AAPL", "class": "price_check"},
  {"task_name": "Analyzing revenue trends", "class": "financial_analysis"}
]`

// Prompt is the planning instruction for one user message.
func Prompt(userMessage string) string {
	return fmt.Sprintf(taskPromptTemplate, userMessage)
}
