package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/dataloomhq/dataloom/internal/tool"
)

func sampleDefs() []tool.Definition {
	return []tool.Definition{
		{Name: "get_schema_info", Description: "schema", PromptDescription: "Inspect the schema."},
		{Name: "execute_sql_query", Description: "sql", PromptDescription: "Run a query."},
	}
}

func TestBuild_IsDeterministicForFixedInput(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	a := Build(sampleDefs(), now)
	b := Build(sampleDefs(), now)

	if a != b {
		t.Fatal("expected two builds with identical input to produce identical output")
	}
}

func TestBuild_ListsEveryToolByName(t *testing.T) {
	now := time.Now()
	out := Build(sampleDefs(), now)

	for _, name := range []string{"get_schema_info", "execute_sql_query"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected prompt to mention tool %q", name)
		}
	}
}

func TestBuild_OmitsChartExampleWithoutWidgetTools(t *testing.T) {
	now := time.Now()
	out := Build(sampleDefs(), now)

	if strings.Contains(out, "createChart") {
		t.Error("expected no chart-function example when no widget tools are registered")
	}
}

func TestBuild_IncludesChartExampleWithWidgetTools(t *testing.T) {
	now := time.Now()
	defs := append(sampleDefs(), tool.Definition{Name: "create_widget", Description: "widget"})
	out := Build(defs, now)

	if !strings.Contains(out, "createChart") {
		t.Error("expected a chart-function example when create_widget is registered")
	}
}

