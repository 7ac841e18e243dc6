package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/queryexec"
	"github.com/dataloomhq/dataloom/internal/sqlvalidate"
)

type executeSQLQueryParams struct {
	Query       string `json:"query" jsonschema:"required,description=The SELECT statement to run."`
	Explanation string `json:"explanation" jsonschema:"required,description=One sentence explaining why this query answers the user's question."`
	PageSize    int    `json:"pageSize,omitempty" jsonschema:"description=Rows per page,default=50,minimum=1,maximum=200"`
}

const (
	defaultToolPageSize = 50
	sampleRowCap        = 10
)

// SQLQueryTool implements execute_sql_query: validates a read-only
// query in tool mode, runs it through the Query Executor, and shapes
// the result into an AI-friendly summary plus a capped sample.
type SQLQueryTool struct{}

// NewSQLQueryTool builds the execute_sql_query tool.
func NewSQLQueryTool() *SQLQueryTool {
	return &SQLQueryTool{}
}

func (t *SQLQueryTool) Definition() Definition {
	return Definition{
		Name: "execute_sql_query",
		Description: "Run a read-only SQL SELECT against the connected database and return a summary, " +
			"a sample of rows, and a formatted preview table.",
		PromptDescription: "Run a SELECT query to answer questions about the data itself (counts, filters, " +
			"aggregates, joins). Always include a short explanation of why the query answers the question.",
		ParameterSchema: generateSchema[executeSQLQueryParams](),
	}
}

func (t *SQLQueryTool) Execute(ctx context.Context, rc *chatmodel.Context, args map[string]any) chatmodel.ToolOutput {
	if rc == nil || rc.DatabasePath == "" {
		return chatmodel.Failure("schema_error", "No database is connected to this conversation.", nil)
	}

	var params executeSQLQueryParams
	if err := decodeArgs(args, &params); err != nil {
		return chatmodel.Failure("validation_error", "Could not understand the query arguments.", err)
	}
	if strings.TrimSpace(params.Query) == "" {
		return chatmodel.Failure("validation_error", "query is required.", nil)
	}
	if strings.TrimSpace(params.Explanation) == "" {
		return chatmodel.Failure("validation_error", "explanation is required.", nil)
	}

	pageSize := defaultToolPageSize
	if _, provided := args["pageSize"]; provided {
		if params.PageSize < queryexec.MinPageSize || params.PageSize > queryexec.ToolMaxPageSize {
			return chatmodel.Failure("validation_error",
				fmt.Sprintf("pageSize must be between %d and %d.", queryexec.MinPageSize, queryexec.ToolMaxPageSize), nil)
		}
		pageSize = params.PageSize
	}

	if res := sqlvalidate.Validate(params.Query, sqlvalidate.ModeTool); !res.IsValid {
		return chatmodel.Failure("sql_error", res.Error, nil)
	}

	result, err := queryexec.Execute(ctx, rc.DatabasePath, params.Query, 1, pageSize)
	if err != nil {
		return chatmodel.Failure(classifyExecutionError(err), "The query could not be executed.", err)
	}

	sample := result.Rows
	if len(sample) > sampleRowCap {
		sample = sample[:sampleRowCap]
	}

	return chatmodel.Success("query_executed", map[string]any{
		"summary": map[string]any{
			"totalRows":    result.TotalRows,
			"returnedRows": len(result.Rows),
			"columns":      result.Columns,
			"hasMoreData":  result.HasMore,
		},
		"sample":        sample,
		"formattedText": formatTable(result.Columns, sample),
	})
}

// classifyExecutionError inspects the underlying SQLite driver error
// text for the handful of failure shapes the spec calls out by name;
// anything else falls back to the generic sql_error tag.
func classifyExecutionError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such table"):
		return "table_not_found"
	case strings.Contains(msg, "no such column"):
		return "column_not_found"
	case strings.Contains(msg, "syntax error") || strings.Contains(msg, "near"):
		return "syntax_error"
	default:
		return "sql_error"
	}
}

// formatTable renders a small textual preview table for the model to
// read directly, independent of the structured sample payload.
func formatTable(columns []string, rows [][]any) string {
	var b strings.Builder
	b.WriteString(strings.Join(columns, " | "))
	b.WriteString("\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprintf("%v", v)
			}
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
