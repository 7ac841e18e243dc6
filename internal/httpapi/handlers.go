package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/dataloomhq/dataloom/internal/orchestrator"
	"github.com/dataloomhq/dataloom/internal/queryexec"
	"github.com/dataloomhq/dataloom/internal/schema"
	"github.com/dataloomhq/dataloom/internal/sqlvalidate"
)

const defaultQueryPageSize = 50

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	if err := s.validateChatRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.Orchestrator.Run(r.Context(), orchestrator.Request{
		Message:      req.Message,
		ChatHistory:  req.ChatHistory,
		DatabasePath: req.DatabasePath,
		Widgets:      req.Widgets,
	})
	if err != nil {
		s.Logger.Error("chat request failed", "error", err)
		s.writeOrchestratorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Success:              true,
		Message:              resp.Message,
		Usage:                resp.Usage,
		ToolResults:          resp.ToolResults,
		Iterations:           resp.Iterations,
		ReachedMaxIterations: resp.ReachedMaxIterations,
	})
}

func (s *Server) writeOrchestratorError(w http.ResponseWriter, err error) {
	var timeoutErr orchestrator.TimeoutError
	var adapterErr *orchestrator.AdapterError
	switch {
	case errors.As(err, &timeoutErr):
		writeError(w, http.StatusRequestTimeout, "Request timed out - workflow took too long to complete")
	case errors.As(err, &adapterErr):
		writeError(w, http.StatusServiceUnavailable, "the language model provider is currently unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	if err := validateFilename(req.Filename); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if result := sqlvalidate.Validate(req.Query, sqlvalidate.ModeTool); !result.IsValid {
		writeError(w, http.StatusBadRequest, result.Error)
		return
	}

	pageSize := queryexec.ClampPageSize(req.PageSize, defaultQueryPageSize, queryexec.WidgetMaxPageSize)
	page := req.Page
	if page < 1 {
		page = 1
	}

	dbPath := filepath.Join(s.UploadsDir, req.Filename)
	result, err := queryexec.Execute(r.Context(), dbPath, req.Query, page, pageSize)
	if err != nil {
		s.Logger.Error("query execution failed", "filename", req.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to execute query")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Success: true, Result: result})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if err := validateFilename(filename); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dbPath := filepath.Join(s.UploadsDir, filename)
	tables, err := schema.ReadAll(r.Context(), dbPath)
	if err != nil {
		s.Logger.Error("schema read failed", "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read database schema")
		return
	}

	writeJSON(w, http.StatusOK, schemaResponse{Success: true, Tables: toTableDTOs(tables)})
}

func toTableDTOs(tables []schema.Table) []tableDTO {
	out := make([]tableDTO, len(tables))
	for i, t := range tables {
		columns := make([]columnDTO, len(t.Columns))
		for j, c := range t.Columns {
			columns[j] = columnDTO{
				Name:         c.Name,
				Type:         c.Type,
				Nullable:     c.Nullable,
				PrimaryKey:   c.PrimaryKey,
				DefaultValue: c.DefaultValue,
			}
		}
		out[i] = tableDTO{Name: t.Name, Columns: columns, RowCount: t.RowCount}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
