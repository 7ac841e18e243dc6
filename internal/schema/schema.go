// Package schema implements the Schema Reader: it lists every
// non-internal table in a user's SQLite database and, for each, the
// column metadata and row count. Per-table introspection is independent
// read-only work, so it fans out across a bounded worker group
// (golang.org/x/sync/errgroup) rather than looping sequentially - this
// is internal to the Schema Reader and invisible to the orchestrator's
// single-tool-call-at-a-time contract.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/dataloomhq/dataloom/internal/apperr"
)

const component = "schema"

// maxConcurrentTables bounds the fan-out so a database with hundreds of
// tables doesn't open hundreds of simultaneous statements.
const maxConcurrentTables = 8

// Column describes one column of one table.
type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nullable     bool   `json:"nullable"`
	PrimaryKey   bool   `json:"primaryKey"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// Table describes one table's shape and size.
type Table struct {
	Name     string   `json:"name"`
	Columns  []Column `json:"columns"`
	RowCount int      `json:"rowCount"`
}

// TableNotFoundError is returned (wrapped) when a requested table does
// not exist; callers that want the available-table list should use
// errors.As with this type rather than a bare errors.Is check.
type TableNotFoundError struct {
	Requested string
	Available []string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %q not found", e.Requested)
}

func openReadOnly(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&cache=shared", url.PathEscape(path))
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

// ListTableNames returns every non-internal table name, sorted for a
// deterministic response.
func ListTableNames(ctx context.Context, path string) ([]string, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return listTableNames(ctx, db)
}

func listTableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, apperr.Wrap(component, "listTableNames", "failed to list tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperr.Wrap(component, "listTableNames", "failed to scan table name", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(component, "listTableNames", "error iterating tables", err)
	}

	sort.Strings(names)
	return names, nil
}

// ReadAll returns every table's full schema, fetched concurrently.
func ReadAll(ctx context.Context, path string) ([]Table, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	names, err := listTableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	return readTables(ctx, db, names)
}

// ReadTable returns one table's schema by name, or a *TableNotFoundError
// (wrapped) listing the available tables if name does not exist.
func ReadTable(ctx context.Context, path, name string) (Table, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return Table{}, err
	}
	defer db.Close()

	names, err := listTableNames(ctx, db)
	if err != nil {
		return Table{}, err
	}

	found := false
	for _, n := range names {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return Table{}, apperr.Wrap(component, "ReadTable", "table not found",
			&TableNotFoundError{Requested: name, Available: names})
	}

	tables, err := readTables(ctx, db, []string{name})
	if err != nil {
		return Table{}, err
	}
	return tables[0], nil
}

// readTables fetches column metadata + row counts for names concurrently,
// then reassembles them in the original (sorted) order so the result is
// independent of goroutine scheduling.
func readTables(ctx context.Context, db *sql.DB, names []string) ([]Table, error) {
	results := make([]Table, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTables)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			table, err := readOneTable(gctx, db, name)
			if err != nil {
				return err
			}
			results[i] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func readOneTable(ctx context.Context, db *sql.DB, name string) (Table, error) {
	quoted := quoteIdentifier(name)

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoted))
	if err != nil {
		return Table{}, apperr.Wrap(component, "readOneTable", "failed to read column info for "+name, err)
	}

	var columns []Column
	for rows.Next() {
		var (
			cid          int
			colName      string
			colType      string
			notNull      int
			defaultValue sql.NullString
			pk           int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultValue, &pk); err != nil {
			rows.Close()
			return Table{}, apperr.Wrap(component, "readOneTable", "failed to scan column info for "+name, err)
		}
		columns = append(columns, Column{
			Name:         colName,
			Type:         colType,
			Nullable:     notNull == 0,
			PrimaryKey:   pk > 0,
			DefaultValue: defaultValue.String,
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return Table{}, apperr.Wrap(component, "readOneTable", "error iterating column info for "+name, err)
	}
	rows.Close()

	var rowCount int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)
	if err := db.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		return Table{}, apperr.Wrap(component, "readOneTable", "failed to count rows for "+name, err)
	}

	return Table{Name: name, Columns: columns, RowCount: rowCount}, nil
}

// quoteIdentifier double-quotes a SQLite identifier, doubling any
// embedded quote so table names can never break out of the identifier
// position when composed into introspection statements.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
