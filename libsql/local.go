package libsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is SQLite's CURRENT_TIMESTAMP text format. Time values are
// exchanged in this layout by both backends.
const TimestampLayout = "2006-01-02 15:04:05"

// Local runs statements against a SQLite file. It mirrors the remote client's
// result shape and error kinds so it can stand in for it in development and
// tests.
type Local struct {
	db *sql.DB
}

// OpenLocal opens (or creates) the SQLite database at path, creating the
// parent directory if needed.
func OpenLocal(path string) (*Local, error) {
	memory := path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent readers; busy_timeout so a writer waits instead of
	// failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}
	return &Local{db: db}, nil
}

// Close closes the underlying database.
func (l *Local) Close() error {
	return l.db.Close()
}

// Query executes one statement.
func (l *Local) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if n := countPlaceholders(query); n != len(args) {
		return nil, fmt.Errorf("%w: %d placeholders, %d args", ErrBadArgs, n, len(args))
	}
	if !returnsRows(query) {
		r, err := l.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, localError(ctx, err)
		}
		res := &Result{}
		res.AffectedRows, _ = r.RowsAffected()
		res.LastInsertID, _ = r.LastInsertId()
		return res, nil
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, localError(ctx, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, localError(ctx, err)
	}
	res := &Result{Columns: cols, Rows: []Row{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, localError(ctx, err)
		}
		row := make(Row, len(cols))
		for i, v := range vals {
			row[i] = normalizeValue(v)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, localError(ctx, err)
	}
	return res, nil
}

func returnsRows(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, kw := range []string{"SELECT", "WITH", "PRAGMA", "VALUES", "EXPLAIN"} {
		if strings.HasPrefix(q, kw) {
			return true
		}
	}
	return strings.Contains(q, " RETURNING ")
}

func localError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: ErrTimeout, Err: err}
	case errors.Is(err, sql.ErrConnDone), errors.Is(err, context.Canceled):
		return &Error{Kind: ErrUnavailable, Err: err}
	default:
		return &Error{Kind: ErrRequestFailed, Body: err.Error()}
	}
}

// normalizeValue maps driver values onto the remote client's value types.
func normalizeValue(v any) Value {
	switch t := v.(type) {
	case nil, int64, float64, string:
		return t
	case []byte:
		return append([]byte(nil), t...)
	case time.Time:
		return t.UTC().Format(TimestampLayout)
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return fmt.Sprint(t)
	}
}
