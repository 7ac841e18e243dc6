// Package queryexec implements the Query Executor: it opens a user's
// SQLite database file read-only, runs one validated SELECT with
// server-imposed pagination, and returns a structured, column-ordered
// result. Connection lifecycle follows the teacher's scoped-acquisition
// idiom (open, defer close, never leak a handle on an error path).
package queryexec

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dataloomhq/dataloom/internal/apperr"
	"github.com/dataloomhq/dataloom/internal/chatmodel"
	"github.com/dataloomhq/dataloom/internal/sqlvalidate"
)

const component = "queryexec"

const busyTimeout = 5 * time.Second

// Tool and widget callers clamp pageSize to different ceilings before
// calling Execute; these are exported so every call site uses the same
// numbers instead of re-deriving them.
const (
	ToolMaxPageSize   = 200
	WidgetMaxPageSize = 1000
	MinPageSize       = 1
)

// ClampPageSize constrains requested to [MinPageSize, max], defaulting a
// non-positive requested value to def.
func ClampPageSize(requested, def, max int) int {
	if requested <= 0 {
		requested = def
	}
	if requested < MinPageSize {
		requested = MinPageSize
	}
	if requested > max {
		requested = max
	}
	return requested
}

// openReadOnly opens path read-only with a busy timeout, matching the
// spec's "5-second busy timeout" contract. Multiple concurrent readers
// against the same file are fine under SQLite's read-only sharing.
func openReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=%d&cache=shared",
		url.PathEscape(path), busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, apperr.Wrap(component, "openReadOnly", "failed to open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperr.Wrap(component, "openReadOnly", "failed to connect to database", err)
	}
	return db, nil
}

// Execute runs query (already validated by sqlvalidate) against the
// database at path with pagination (page, pageSize), opening and
// closing a read-only connection for the duration of the call.
func Execute(ctx context.Context, path, query string, page, pageSize int) (chatmodel.QueryResult, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return chatmodel.QueryResult{}, err
	}
	defer db.Close()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	if sqlvalidate.HasLimitOrOffset(query) {
		return executeAsIs(ctx, db, query)
	}

	return executePaginated(ctx, db, query, page, pageSize)
}

// executeAsIs runs a query that already carries its own LIMIT/OFFSET.
// The true total row count is unknown in this path - by design, per the
// spec's documented ambiguity - so totalRows reports the returned row
// count and hasMore is always false.
func executeAsIs(ctx context.Context, db *sql.DB, query string) (chatmodel.QueryResult, error) {
	columns, rows, err := runQuery(ctx, db, query)
	if err != nil {
		return chatmodel.QueryResult{}, apperr.Wrap(component, "executeAsIs", "query execution failed", err)
	}

	return chatmodel.QueryResult{
		Columns:    columns,
		Rows:       rows,
		TotalRows:  len(rows),
		Page:       1,
		PageSize:   len(rows),
		TotalPages: 1,
		HasMore:    false,
	}, nil
}

func executePaginated(ctx context.Context, db *sql.DB, query string, page, pageSize int) (chatmodel.QueryResult, error) {
	total, err := countRows(ctx, db, query)
	if err != nil {
		return chatmodel.QueryResult{}, apperr.Wrap(component, "executePaginated", "failed to count rows", err)
	}

	offset := (page - 1) * pageSize
	paged := fmt.Sprintf("%s LIMIT %d OFFSET %d", query, pageSize, offset)

	columns, rows, err := runQuery(ctx, db, paged)
	if err != nil {
		return chatmodel.QueryResult{}, apperr.Wrap(component, "executePaginated", "query execution failed", err)
	}

	totalPages := 1
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
		if totalPages < 1 {
			totalPages = 1
		}
	}

	return chatmodel.QueryResult{
		Columns:    columns,
		Rows:       rows,
		TotalRows:  total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasMore:    total > page*pageSize,
	}, nil
}

// countRows wraps query as SELECT COUNT(*) FROM (query); if that fails
// (non-countable shapes, e.g. queries already embedding a trailing
// clause the wrap can't sit behind), falls back to running the bare
// query and counting its returned rows.
func countRows(ctx context.Context, db *sql.DB, query string) (int, error) {
	wrapped := fmt.Sprintf("SELECT COUNT(*) FROM (%s)", query)

	var count int
	err := db.QueryRowContext(ctx, wrapped).Scan(&count)
	if err == nil {
		return count, nil
	}

	_, rows, fallbackErr := runQuery(ctx, db, query)
	if fallbackErr != nil {
		return 0, fallbackErr
	}
	return len(rows), nil
}

// runQuery executes query and materializes every returned row as an
// ordered []any matching the column list, preserving SQL NULLs as nil.
func runQuery(ctx context.Context, db *sql.DB, query string) ([]string, [][]any, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var result [][]any
	for rows.Next() {
		scanTargets := make([]any, len(columns))
		values := make([]any, len(columns))
		for i := range scanTargets {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, err
		}
		result = append(result, normalizeRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if result == nil {
		result = [][]any{}
	}

	return columns, result, nil
}

// normalizeRow converts driver-native values ([]byte for TEXT in
// particular) into JSON-friendly Go types, preserving nil for NULL.
func normalizeRow(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch val := v.(type) {
		case nil:
			out[i] = nil
		case []byte:
			out[i] = string(val)
		default:
			out[i] = val
		}
	}
	return out
}
