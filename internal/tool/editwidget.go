package tool

import (
	"context"
	"fmt"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/queryexec"
	"github.com/dataloomhq/dataloom/internal/sqlvalidate"
)

type editWidgetParams struct {
	WidgetID      int    `json:"widgetId" jsonschema:"required,description=ID of the existing widget to edit,minimum=1"`
	Title         string `json:"title,omitempty" jsonschema:"description=New title."`
	Query         string `json:"query,omitempty" jsonschema:"description=New SELECT statement."`
	WidgetType    string `json:"widgetType,omitempty" jsonschema:"enum=data-table|graph,description=New widget kind."`
	ChartFunction string `json:"chartFunction,omitempty" jsonschema:"description=New chart-rendering function source."`
	Width         int    `json:"width,omitempty" jsonschema:"description=New grid width,minimum=1,maximum=4"`
	Height        int    `json:"height,omitempty" jsonschema:"description=New grid height,minimum=1,maximum=4"`
}

// EditWidgetTool implements edit_widget: a partial overlay onto an
// existing widget record, re-executing the query only when the query
// or widget type actually changed.
type EditWidgetTool struct{}

// NewEditWidgetTool builds the edit_widget tool.
func NewEditWidgetTool() *EditWidgetTool {
	return &EditWidgetTool{}
}

func (t *EditWidgetTool) Definition() Definition {
	return Definition{
		Name:        "edit_widget",
		Description: "Edit an existing dashboard widget's title, query, type, chart function, or size.",
		PromptDescription: "Modify a widget already on the dashboard. Only the fields you provide are " +
			"changed; everything else keeps its current value.",
		ParameterSchema: generateSchema[editWidgetParams](),
	}
}

func (t *EditWidgetTool) Execute(ctx context.Context, rc *chatmodel.Context, args map[string]any) chatmodel.ToolOutput {
	var params editWidgetParams
	if err := decodeArgs(args, &params); err != nil {
		return chatmodel.Failure("validation_error", "Could not understand the edit arguments.", err)
	}
	if params.WidgetID <= 0 {
		return chatmodel.Failure("validation_error", "widgetId must be a positive integer.", nil)
	}

	existing, found := findWidget(rc, params.WidgetID)
	if !found {
		return chatmodel.Failure("widget_not_found", fmt.Sprintf("Widget %d does not exist.", params.WidgetID), nil)
	}

	updated := existing
	changes := map[string]any{}

	if params.Title != "" && params.Title != existing.Title {
		changes["title"] = map[string]string{"from": existing.Title, "to": params.Title}
		updated.Title = params.Title
	}
	typeChanged := false
	if params.WidgetType != "" && chatmodel.WidgetType(params.WidgetType) != existing.Type {
		changes["widgetType"] = map[string]string{"from": string(existing.Type), "to": params.WidgetType}
		updated.Type = chatmodel.WidgetType(params.WidgetType)
		typeChanged = true
	}
	queryChanged := false
	if params.Query != "" && params.Query != existing.Query {
		changes["query"] = map[string]string{"from": existing.Query, "to": params.Query}
		updated.Query = params.Query
		queryChanged = true
	}
	if params.Width != 0 && params.Width != existing.Dimensions.Width {
		changes["width"] = map[string]int{"from": existing.Dimensions.Width, "to": params.Width}
		updated.Dimensions.Width = params.Width
	}
	if params.Height != 0 && params.Height != existing.Dimensions.Height {
		changes["height"] = map[string]int{"from": existing.Dimensions.Height, "to": params.Height}
		updated.Dimensions.Height = params.Height
	}
	if params.ChartFunction != "" && params.ChartFunction != existing.ChartFunction {
		changes["chartFunction"] = "updated"
		updated.ChartFunction = params.ChartFunction
	}

	if updated.Type == chatmodel.WidgetTypeGraph && updated.ChartFunction == "" {
		return chatmodel.Failure("validation_error",
			"chartFunction is required when converting a widget to type 'graph'.", nil)
	}

	if len(changes) == 0 {
		return chatmodel.Success("widget_unchanged", map[string]any{
			"widgetId": params.WidgetID,
			"message":  "No fields differed from the current widget; nothing was changed.",
		})
	}

	var results any
	if queryChanged || typeChanged {
		if res := sqlvalidate.Validate(updated.Query, sqlvalidate.ModeWidget); !res.IsValid {
			return chatmodel.Failure("sql_error", res.Error, nil)
		}
		result, err := queryexec.Execute(ctx, rc.DatabasePath, updated.Query, 1, queryexec.WidgetMaxPageSize)
		if err != nil {
			return chatmodel.Failure("sql_error", "The updated query could not be executed.", err)
		}
		results = result
	}

	widgetConfig := map[string]any{
		"id":            updated.ID,
		"title":         updated.Title,
		"widgetType":    string(updated.Type),
		"query":         updated.Query,
		"width":         updated.Dimensions.Width,
		"height":        updated.Dimensions.Height,
		"chartFunction": updated.ChartFunction,
	}
	if results != nil {
		widgetConfig["results"] = results
	}

	return chatmodel.Success("widget_updated", map[string]any{
		"widgetConfig": widgetConfig,
		"changes":      changes,
	})
}

func findWidget(rc *chatmodel.Context, id int) (chatmodel.WidgetSummary, bool) {
	if rc == nil {
		return chatmodel.WidgetSummary{}, false
	}
	for _, w := range rc.Widgets {
		if w.ID == id {
			return w, true
		}
	}
	return chatmodel.WidgetSummary{}, false
}
