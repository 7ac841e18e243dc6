package tool

import (
	"context"
	"fmt"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
)

// widgetStatus mirrors the frontend's status derivation so the model's
// narration of "what's on the dashboard" matches what the user sees.
func widgetStatus(w chatmodel.WidgetSummary) string {
	switch {
	case w.Query == "":
		return "empty (no query set)"
	case !w.HasResults:
		return "configured but not run"
	default:
		return "showing data"
	}
}

type widgetRecord struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Query      string `json:"query"`
	Status     string `json:"status"`
	HasResults bool   `json:"hasResults"`
}

// ListWidgetsTool implements list_widgets: reads context.widgets
// directly, with no parameters of its own.
type ListWidgetsTool struct{}

// NewListWidgetsTool builds the list_widgets tool.
func NewListWidgetsTool() *ListWidgetsTool {
	return &ListWidgetsTool{}
}

func (t *ListWidgetsTool) Definition() Definition {
	return Definition{
		Name:              "list_widgets",
		Description:       "List every widget currently on the dashboard, with its title, type, query, and whether it has data.",
		PromptDescription: "See what widgets already exist on the dashboard before creating or editing one. Takes no arguments.",
		ParameterSchema:   generateSchema[struct{}](),
	}
}

func (t *ListWidgetsTool) Execute(ctx context.Context, rc *chatmodel.Context, args map[string]any) chatmodel.ToolOutput {
	var widgets []chatmodel.WidgetSummary
	if rc != nil {
		widgets = rc.Widgets
	}

	records := make([]widgetRecord, 0, len(widgets))
	tableCount, graphCount, withData := 0, 0, 0
	for _, w := range widgets {
		if w.Type == chatmodel.WidgetTypeGraph {
			graphCount++
		} else {
			tableCount++
		}
		if w.HasResults {
			withData++
		}
		records = append(records, widgetRecord{
			ID:         w.ID,
			Title:      w.Title,
			Type:       string(w.Type),
			Query:      w.Query,
			Status:     widgetStatus(w),
			HasResults: w.HasResults,
		})
	}

	summary := fmt.Sprintf(
		"%d widget(s) total: %d data-table, %d graph; %d showing data.",
		len(widgets), tableCount, graphCount, withData,
	)

	return chatmodel.Success("widgets_listed", map[string]any{
		"widgets": records,
		"summary": summary,
	})
}
