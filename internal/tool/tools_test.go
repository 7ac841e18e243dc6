package tool

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
)

func setupToolTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO users (name) VALUES ('alice'), ('bob'), ('carol')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return path
}

func TestSchemaInfoTool_NoDatabaseIsSchemaError(t *testing.T) {
	out := NewSchemaInfoTool().Execute(context.Background(), &chatmodel.Context{}, map[string]any{})
	if out.Success || out.Action != "schema_error" {
		t.Fatalf("expected schema_error, got %+v", out)
	}
}

func TestSchemaInfoTool_FullSchema(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewSchemaInfoTool().Execute(context.Background(), rc, map[string]any{})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
}

func TestSchemaInfoTool_UnknownTableListsAvailable(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewSchemaInfoTool().Execute(context.Background(), rc, map[string]any{"tableName": "missing"})
	if out.Success || out.Action != "table_not_found" {
		t.Fatalf("expected table_not_found, got %+v", out)
	}
	data, ok := out.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected data map, got %T", out.Data)
	}
	if _, ok := data["availableTables"]; !ok {
		t.Fatal("expected availableTables in failure payload")
	}
}

func TestListWidgetsTool_SummarizesByTypeAndData(t *testing.T) {
	rc := &chatmodel.Context{Widgets: []chatmodel.WidgetSummary{
		{ID: 1, Title: "A", Type: chatmodel.WidgetTypeDataTable, Query: "SELECT 1", HasResults: true},
		{ID: 2, Title: "B", Type: chatmodel.WidgetTypeGraph, Query: "", HasResults: false},
	}}

	out := NewListWidgetsTool().Execute(context.Background(), rc, map[string]any{})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
}

func TestSQLQueryTool_RejectsForbiddenStatement(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewSQLQueryTool().Execute(context.Background(), rc, map[string]any{
		"query":       "DROP TABLE users",
		"explanation": "test",
	})
	if out.Success {
		t.Fatal("expected failure for DROP statement")
	}
	if out.Action != "sql_error" {
		t.Errorf("expected action=sql_error, got %q", out.Action)
	}
}

func TestSQLQueryTool_ExecutesSelect(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewSQLQueryTool().Execute(context.Background(), rc, map[string]any{
		"query":       "SELECT COUNT(*) AS n FROM users",
		"explanation": "count users",
	})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
}

func TestSQLQueryTool_RejectsOutOfRangePageSize(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewSQLQueryTool().Execute(context.Background(), rc, map[string]any{
		"query":       "SELECT * FROM users",
		"explanation": "list users",
		"pageSize":    250,
	})
	if out.Success || out.Action != "validation_error" {
		t.Fatalf("expected validation_error for pageSize=250, got %+v", out)
	}
}

func TestSQLQueryTool_RejectsZeroPageSize(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewSQLQueryTool().Execute(context.Background(), rc, map[string]any{
		"query":       "SELECT * FROM users",
		"explanation": "list users",
		"pageSize":    0,
	})
	if out.Success || out.Action != "validation_error" {
		t.Fatalf("expected validation_error for pageSize=0, got %+v", out)
	}
}

func TestCreateWidgetTool_GraphRequiresChartFunction(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewCreateWidgetTool().Execute(context.Background(), rc, map[string]any{
		"title":      "chart",
		"widgetType": "graph",
		"query":      "SELECT COUNT(*) FROM users",
	})
	if out.Success {
		t.Fatal("expected failure without chartFunction")
	}
}

func TestCreateWidgetTool_DataTableSucceeds(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewCreateWidgetTool().Execute(context.Background(), rc, map[string]any{
		"title":      "users",
		"widgetType": "data-table",
		"query":      "SELECT * FROM users",
	})
	if !out.Success {
		t.Fatalf("expected success, got %+v", out)
	}
	data := out.Data.(map[string]any)
	cfg := data["widgetConfig"].(map[string]any)
	if cfg["id"] == "" || cfg["id"] == nil {
		t.Fatal("expected a generated widget id")
	}
}

func TestCreateWidgetTool_RejectsWidgetModeLimit(t *testing.T) {
	path := setupToolTestDB(t)
	rc := &chatmodel.Context{DatabasePath: path}

	out := NewCreateWidgetTool().Execute(context.Background(), rc, map[string]any{
		"title":      "users",
		"widgetType": "data-table",
		"query":      "SELECT * FROM users LIMIT 10",
	})
	if out.Success {
		t.Fatal("expected failure: widget mode forbids explicit LIMIT")
	}
}

func TestEditWidgetTool_UnknownWidget(t *testing.T) {
	rc := &chatmodel.Context{}
	out := NewEditWidgetTool().Execute(context.Background(), rc, map[string]any{
		"widgetId": 99, "title": "new",
	})
	if out.Success || out.Action != "widget_not_found" {
		t.Fatalf("expected widget_not_found, got %+v", out)
	}
}

func TestEditWidgetTool_TitleOnlyChangeDoesNotReexecuteQuery(t *testing.T) {
	rc := &chatmodel.Context{Widgets: []chatmodel.WidgetSummary{
		{ID: 1, Title: "old", Type: chatmodel.WidgetTypeDataTable, Query: "SELECT 1", Dimensions: chatmodel.WidgetDimensions{Width: 2, Height: 2}},
	}}

	out := NewEditWidgetTool().Execute(context.Background(), rc, map[string]any{
		"widgetId": 1, "title": "new title",
	})
	if !out.Success || out.Action != "widget_updated" {
		t.Fatalf("expected widget_updated, got %+v", out)
	}
	data := out.Data.(map[string]any)
	cfg := data["widgetConfig"].(map[string]any)
	if _, hasResults := cfg["results"]; hasResults {
		t.Fatal("expected no re-executed results for a title-only change")
	}
}

func TestEditWidgetTool_NoFieldsChangedReturnsUnchanged(t *testing.T) {
	rc := &chatmodel.Context{Widgets: []chatmodel.WidgetSummary{
		{ID: 1, Title: "same", Type: chatmodel.WidgetTypeDataTable, Query: "SELECT 1"},
	}}

	out := NewEditWidgetTool().Execute(context.Background(), rc, map[string]any{
		"widgetId": 1, "title": "same",
	})
	if !out.Success || out.Action != "widget_unchanged" {
		t.Fatalf("expected widget_unchanged, got %+v", out)
	}
}

func TestEditWidgetTool_GraphConversionRequiresChartFunction(t *testing.T) {
	rc := &chatmodel.Context{Widgets: []chatmodel.WidgetSummary{
		{ID: 1, Title: "t", Type: chatmodel.WidgetTypeDataTable, Query: "SELECT 1"},
	}}

	out := NewEditWidgetTool().Execute(context.Background(), rc, map[string]any{
		"widgetId": 1, "widgetType": "graph",
	})
	if out.Success {
		t.Fatal("expected failure converting to graph without chartFunction")
	}
}
