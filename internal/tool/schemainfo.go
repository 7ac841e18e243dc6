package tool

import (
	"context"
	"errors"

	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/schema"
)

type schemaInfoParams struct {
	TableName string `json:"tableName,omitempty" jsonschema:"description=Name of a specific table to inspect. Omit to get the full schema."`
}

// SchemaInfoTool implements get_schema_info: full database schema, or
// one table's columns and row count when tableName is given.
type SchemaInfoTool struct{}

// NewSchemaInfoTool builds the get_schema_info tool.
func NewSchemaInfoTool() *SchemaInfoTool {
	return &SchemaInfoTool{}
}

func (t *SchemaInfoTool) Definition() Definition {
	return Definition{
		Name:        "get_schema_info",
		Description: "Get the database schema: table names, columns, types, and row counts. Optionally inspect a single table.",
		PromptDescription: "Inspect the connected database's schema. Call with no arguments for an " +
			"overview of every table, or with tableName to see one table's columns in detail.",
		ParameterSchema: generateSchema[schemaInfoParams](),
	}
}

func (t *SchemaInfoTool) Execute(ctx context.Context, rc *chatmodel.Context, args map[string]any) chatmodel.ToolOutput {
	if rc == nil || rc.DatabasePath == "" {
		return chatmodel.Failure("schema_error", "No database is connected to this conversation.", nil)
	}

	var params schemaInfoParams
	if err := decodeArgs(args, &params); err != nil {
		return chatmodel.Failure("validation_error", "Could not understand the schema request arguments.", err)
	}

	if params.TableName == "" {
		tables, err := schema.ReadAll(ctx, rc.DatabasePath)
		if err != nil {
			return chatmodel.Failure("schema_error", "Failed to read the database schema.", err)
		}
		names := make([]string, len(tables))
		for i, tbl := range tables {
			names[i] = tbl.Name
		}
		return chatmodel.Success("schema_info", map[string]any{
			"tables":     tables,
			"tableNames": names,
		})
	}

	tbl, err := schema.ReadTable(ctx, rc.DatabasePath, params.TableName)
	if err != nil {
		var notFound *schema.TableNotFoundError
		if errors.As(err, &notFound) {
			return chatmodel.ToolOutput{
				Success: false,
				Action:  "table_not_found",
				Error:   "Table '" + params.TableName + "' does not exist.",
				Data:    map[string]any{"availableTables": notFound.Available},
			}
		}
		return chatmodel.Failure("schema_error", "Failed to read table schema.", err)
	}

	return chatmodel.Success("schema_info", map[string]any{"table": tbl})
}
