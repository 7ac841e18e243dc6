package httpapi

import "github.com/dataloomhq/dataloom/internal/chatmodel"

// chatRequest is the body of POST /chat.
type chatRequest struct {
	Message      string                  `json:"message"`
	ChatHistory  []chatmodel.Message     `json:"chatHistory,omitempty"`
	DatabasePath string                  `json:"databasePath,omitempty"`
	Widgets      []chatmodel.WidgetSummary `json:"widgets,omitempty"`
}

// chatResponse is the success body of POST /chat.
type chatResponse struct {
	Success              bool                    `json:"success"`
	Message              string                  `json:"message"`
	Usage                chatmodel.Usage         `json:"usage"`
	ToolResults          []chatmodel.ToolResult  `json:"toolResults"`
	Iterations           int                     `json:"iterations"`
	ReachedMaxIterations bool                    `json:"reachedMaxIterations,omitempty"`
}

// queryRequest is the body of POST /query.
type queryRequest struct {
	Filename string `json:"filename"`
	Query    string `json:"query"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// queryResponse is the success body of POST /query.
type queryResponse struct {
	Success bool                   `json:"success"`
	Result  chatmodel.QueryResult  `json:"result"`
}

// schemaResponse is the success body of GET /schema.
type schemaResponse struct {
	Success bool     `json:"success"`
	Tables  []tableDTO `json:"tables"`
}

type tableDTO struct {
	Name     string       `json:"name"`
	Columns  []columnDTO  `json:"columns"`
	RowCount int          `json:"rowCount"`
}

type columnDTO struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nullable     bool   `json:"nullable"`
	PrimaryKey   bool   `json:"primaryKey"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}
