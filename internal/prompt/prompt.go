// Package prompt implements the System-Prompt Builder (C6): it
// deterministically assembles the single system-role message sent on
// every request from the registered tool list and the current date, so
// two invocations against the same tool set produce byte-identical
// output.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/dataloomhq/dataloom/internal/tool"
)

const identityPreamble = `You are DataLoom, an assistant embedded in a data-exploration dashboard. ` +
	`A user has uploaded a database and may ask you questions about it, ask you to run queries, ` +
	`or ask you to build and edit dashboard widgets. Use the tools available to you rather than ` +
	`guessing at schema or data you have not inspected.`

const usageGuidance = `Guidance:
- Inspect the schema before writing a query against a table you have not seen.
- Prefer the smallest query that answers the question; use pageSize to control result size.
- When asked to visualize or track something on the dashboard, use create_widget or edit_widget.
- If a tool call fails, read the error and either retry with corrected arguments or explain the limitation to the user.
- Give your final answer in plain text once you have enough information; do not call a tool you do not need.`

const exampleBlock = `Examples:
- "How many rows are in the orders table?" -> get_schema_info, then execute_sql_query.
- "What tables do I have?" -> get_schema_info with no arguments.
- "Show me a table of top customers by spend." -> execute_sql_query to check the shape, then create_widget.
- "What's already on my dashboard?" -> list_widgets.
- "Change that chart to a bar chart." -> edit_widget with a new chartFunction.`

const chartFunctionExample = `A chartFunction is a JavaScript function body that receives row data and calls ` +
	`createChart(...) to render it, for example:
function renderChart(rows) {
  return createChart({ type: "bar", data: rows });
}`

// Build assembles the system prompt for the given tool set and the
// current time, used as the conversation's date anchor.
func Build(defs []tool.Definition, now time.Time) string {
	var b strings.Builder

	b.WriteString(identityPreamble)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Today's date is %s.\n\n", now.Format("2006-01-02"))

	fmt.Fprintf(&b, "You have %d tool(s) available:\n", len(defs))
	for _, d := range defs {
		desc := d.PromptDescription
		if desc == "" {
			desc = d.Description
		}
		fmt.Fprintf(&b, "- %s: %s\n", d.Name, desc)
	}
	b.WriteString("\n")

	b.WriteString(usageGuidance)
	b.WriteString("\n\n")
	b.WriteString(exampleBlock)

	if hasGraphTool(defs) {
		b.WriteString("\n\n")
		b.WriteString(chartFunctionExample)
	}

	return b.String()
}

func hasGraphTool(defs []tool.Definition) bool {
	for _, d := range defs {
		if d.Name == "create_widget" || d.Name == "edit_widget" {
			return true
		}
	}
	return false
}
