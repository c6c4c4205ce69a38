// Package libsql executes parameterized SQL statements against a libSQL
// server over its HTTP pipeline API, or against a local SQLite file during
// development. Both backends return the same normalized Result.
package libsql

import (
	"context"
	"strings"
)

// Value is a single column value: nil, int64, float64, string or []byte.
type Value = any

// Row is one result row, ordered like Result.Columns.
type Row []Value

// Result is the normalized outcome of one statement.
type Result struct {
	Columns      []string
	Rows         []Row
	AffectedRows int64
	LastInsertID int64
}

// Querier runs a single parameterized statement. Placeholders are positional
// (?) and args must match them one to one.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*Result, error)
}

// Record returns row i keyed by column name, or nil if i is out of range.
func (r *Result) Record(i int) map[string]Value {
	if r == nil || i < 0 || i >= len(r.Rows) {
		return nil
	}
	row := r.Rows[i]
	rec := make(map[string]Value, len(r.Columns))
	for j, col := range r.Columns {
		if j < len(row) {
			rec[col] = row[j]
		}
	}
	return rec
}

// countPlaceholders counts ? markers outside quoted literals and comments.
func countPlaceholders(query string) int {
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if quote != 0 {
			if ch == quote {
				// doubled quote is an escaped quote inside the literal
				if i+1 < len(query) && query[i+1] == quote {
					i++
					continue
				}
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '?':
			n++
		case '-':
			if i+1 < len(query) && query[i+1] == '-' {
				end := strings.IndexByte(query[i:], '\n')
				if end < 0 {
					return n
				}
				i += end
			}
		case '/':
			if i+1 < len(query) && query[i+1] == '*' {
				end := strings.Index(query[i+2:], "*/")
				if end < 0 {
					return n
				}
				i += end + 3
			}
		}
	}
	return n
}
