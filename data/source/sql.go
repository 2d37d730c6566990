package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/ncobase/taskrunner/data"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// catalogQueries list base tables of the current schema.
var catalogQueries = map[data.Dialect]string{
	data.DialectSQLite:   `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
	data.DialectPostgres: `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name`,
	data.DialectMySQL:    `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name`,
}

// SQLSource reads tables of a relational database.
type SQLSource struct {
	db      *sql.DB
	dialect data.Dialect
	tables  []string
}

// NewSQLSource wraps db. A non-empty tables list restricts and orders the export,
// otherwise tables are discovered from the catalog.
func NewSQLSource(db *sql.DB, dialect data.Dialect, tables []string) *SQLSource {
	return &SQLSource{db: db, dialect: dialect, tables: tables}
}

// Tables returns the configured tables or the catalog's base tables.
func (s *SQLSource) Tables(ctx context.Context) ([]string, error) {
	if len(s.tables) > 0 {
		return append([]string(nil), s.tables...), nil
	}
	q, ok := catalogQueries[s.dialect]
	if !ok {
		return nil, fmt.Errorf("table discovery not supported for dialect %q", s.dialect)
	}
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FindMany returns every row of table.
func (s *SQLSource) FindMany(ctx context.Context, table string) ([]Row, error) {
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if len(s.tables) > 0 && !contains(s.tables, table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	ident := `"` + table + `"`
	if s.dialect == data.DialectMySQL {
		ident = "`" + table + "`"
	}
	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+ident)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("find %s: %w", table, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", table, err)
	}
	return out, nil
}
