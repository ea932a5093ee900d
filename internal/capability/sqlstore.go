package capability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

const defaultMaxRows = 50

// SQLStore is the session database behind execute_sql.
type SQLStore struct {
	db      *sql.DB
	maxRows int
}

// OpenSQLStore opens path, or a private in-memory database when path is empty.
func OpenSQLStore(path string, maxRows int) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite pragmas: %w", err)
	}
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &SQLStore{db: db, maxRows: maxRows}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Execute runs one statement. Row-returning statements render as a
// pipe-separated table; others report the affected row count.
func (s *SQLStore) Execute(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("query is required")
	}
	if returnsRows(query) {
		return s.queryTable(ctx, query)
	}
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("sqlite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "OK", nil
	}
	return fmt.Sprintf("OK, %d row(s) affected", affected), nil
}

func (s *SQLStore) queryTable(ctx context.Context, query string) (string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("sqlite: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(strings.Join(columns, " | "))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", max(3, len(strings.Join(columns, " | ")))))
	b.WriteString("\n")

	count, truncated := 0, false
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	for rows.Next() {
		if count >= s.maxRows {
			truncated = true
			break
		}
		if err := rows.Scan(pointers...); err != nil {
			return "", err
		}
		cells := make([]string, len(values))
		for i, value := range values {
			cells[i] = formatCell(value)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
		count++
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("sqlite: %w", err)
	}
	if truncated {
		fmt.Fprintf(&b, "(showing first %d rows)\n", s.maxRows)
	} else {
		fmt.Fprintf(&b, "(%d row(s))\n", count)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(typed)
	default:
		return fmt.Sprint(typed)
	}
}

func returnsRows(query string) bool {
	stmt := strings.TrimLeft(stripLeadingComments(query), "( \t\r\n")
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES":
		return true
	}
	return false
}

func stripLeadingComments(query string) string {
	for {
		query = strings.TrimSpace(query)
		switch {
		case strings.HasPrefix(query, "--"):
			nl := strings.IndexByte(query, '\n')
			if nl < 0 {
				return ""
			}
			query = query[nl+1:]
		case strings.HasPrefix(query, "/*"):
			end := strings.Index(query, "*/")
			if end < 0 {
				return ""
			}
			query = query[end+2:]
		default:
			return query
		}
	}
}
