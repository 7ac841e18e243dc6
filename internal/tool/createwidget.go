package tool

import (
	"context"
	"strings"
	"time"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/queryexec"
	"github.com/dataloomhq/dataloom/internal/sqlvalidate"
)

type createWidgetParams struct {
	Title         string `json:"title" jsonschema:"required,description=Widget title shown on the dashboard."`
	WidgetType    string `json:"widgetType" jsonschema:"required,enum=data-table|graph,description=Kind of widget to create."`
	Query         string `json:"query" jsonschema:"required,description=The SELECT statement backing this widget."`
	Width         int    `json:"width,omitempty" jsonschema:"description=Grid width,default=2,minimum=1,maximum=4"`
	Height        int    `json:"height,omitempty" jsonschema:"description=Grid height,default=2,minimum=1,maximum=4"`
	ChartFunction string `json:"chartFunction,omitempty" jsonschema:"description=Required for graph widgets: JS chart-rendering function source."`
}

const defaultWidgetDimension = 2

// CreateWidgetTool implements create_widget: validates dimensions and
// SQL, eagerly previews the query (its first page, at most
// queryexec.WidgetMaxPageSize rows), and returns a
// ready-to-persist widgetConfig with a freshly generated id.
type CreateWidgetTool struct {
	now func() time.Time
}

// NewCreateWidgetTool builds the create_widget tool.
func NewCreateWidgetTool() *CreateWidgetTool {
	return &CreateWidgetTool{now: time.Now}
}

func (t *CreateWidgetTool) Definition() Definition {
	return Definition{
		Name: "create_widget",
		Description: "Create a new dashboard widget backed by a SELECT query: a data table or a custom " +
			"chart.",
		PromptDescription: "Add a new widget to the dashboard once you know what query and visualization " +
			"the user wants. For graph widgets, chartFunction must define a JavaScript function that calls " +
			"createChart(...).",
		ParameterSchema: generateSchema[createWidgetParams](),
	}
}

func (t *CreateWidgetTool) Execute(ctx context.Context, rc *chatmodel.Context, args map[string]any) chatmodel.ToolOutput {
	if rc == nil || rc.DatabasePath == "" {
		return chatmodel.Failure("schema_error", "No database is connected to this conversation.", nil)
	}

	var params createWidgetParams
	if err := decodeArgs(args, &params); err != nil {
		return chatmodel.Failure("validation_error", "Could not understand the widget arguments.", err)
	}

	widgetType := chatmodel.WidgetType(params.WidgetType)
	if widgetType != chatmodel.WidgetTypeDataTable && widgetType != chatmodel.WidgetTypeGraph {
		return chatmodel.Failure("validation_error", "widgetType must be 'data-table' or 'graph'.", nil)
	}
	if strings.TrimSpace(params.Title) == "" {
		return chatmodel.Failure("validation_error", "title is required.", nil)
	}

	width := params.Width
	if width == 0 {
		width = defaultWidgetDimension
	}
	height := params.Height
	if height == 0 {
		height = defaultWidgetDimension
	}
	if width < 1 || width > 4 || height < 1 || height > 4 {
		return chatmodel.Failure("validation_error", "width and height must each be between 1 and 4.", nil)
	}

	if widgetType == chatmodel.WidgetTypeGraph {
		if !isPlausibleChartFunction(params.ChartFunction) {
			return chatmodel.Failure("validation_error",
				"chartFunction is required for graph widgets and must define a function that calls createChart(...).", nil)
		}
	}

	if res := sqlvalidate.Validate(params.Query, sqlvalidate.ModeWidget); !res.IsValid {
		return chatmodel.Failure("sql_error", res.Error, nil)
	}

	result, err := queryexec.Execute(ctx, rc.DatabasePath, params.Query, 1, queryexec.WidgetMaxPageSize)
	if err != nil {
		return chatmodel.Failure("sql_error", "The widget's query could not be executed.", err)
	}

	id := newWidgetID(t.now().UnixMilli())

	widgetConfig := map[string]any{
		"id":            id,
		"title":         params.Title,
		"widgetType":    string(widgetType),
		"query":         params.Query,
		"width":         width,
		"height":        height,
		"chartFunction": params.ChartFunction,
		"results":       result,
	}

	return chatmodel.Success("widget_created", map[string]any{"widgetConfig": widgetConfig})
}

// isPlausibleChartFunction is a lexical sanity check, not a JS parser:
// it rejects obviously-wrong input (empty, or missing the two tokens
// every valid chart function must contain) while accepting anything
// else for the frontend's own sandboxed evaluator to judge.
func isPlausibleChartFunction(src string) bool {
	return strings.Contains(src, "function") && strings.Contains(src, "createChart")
}
