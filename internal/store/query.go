package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/contactq/internal/schema"
)

// Query is one native query against a collection.
type Query struct {
	Collection string
	Where      string   // may be empty; uses ? placeholders
	Params     []string // bound in order
	OrderBy    string   // may be empty
	Limit      int      // negative means unbounded
	Offset     int      // negative means none
}

// Row is one result row keyed by column name.
type Row map[string]any

// Int64 reads an integer column.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// String reads a text column. NULL reads as "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// TableFor maps a collection identifier to the table or view backing it.
func TableFor(collection string) (string, error) {
	switch collection {
	case schema.CollectionContacts:
		return "contacts", nil
	case schema.CollectionRawContacts:
		return "raw_contacts", nil
	case schema.CollectionData:
		return "data", nil
	case schema.CollectionPhones:
		return "phones", nil
	case schema.CollectionEmails:
		return "emails", nil
	case schema.CollectionPostals:
		return "postals", nil
	default:
		return "", fmt.Errorf("unknown collection %q", collection)
	}
}

// build renders q as SQL selecting cols.
func (q Query) build(cols string) (string, []any, error) {
	table, err := TableFor(q.Collection)
	if err != nil {
		return "", nil, err
	}
	if strings.Count(q.Where, "?") != len(q.Params) {
		return "", nil, fmt.Errorf("where clause has %d placeholders for %d params", strings.Count(q.Where, "?"), len(q.Params))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, table)
	args := make([]any, 0, len(q.Params)+2)
	if q.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where)
		for _, p := range q.Params {
			args = append(args, p)
		}
	}

	b.WriteString(" ORDER BY ")
	if q.OrderBy != "" {
		b.WriteString(q.OrderBy)
		b.WriteString(", ")
	}
	b.WriteString("_id ASC")

	if q.Limit >= 0 || q.Offset > 0 {
		limit, offset := q.Limit, max(q.Offset, 0)
		if limit < 0 {
			limit = -1
		}
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, offset)
	}

	return b.String(), args, nil
}

// Query runs q and returns every row.
func (s *Store) Query(ctx context.Context, q Query) ([]Row, error) {
	query, args, err := q.build("*")
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Count returns how many rows q yields, honoring its limit and offset.
func (s *Store) Count(ctx context.Context, q Query) (int, error) {
	inner, args, err := q.build("_id")
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ("+inner+")", args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Collection, err)
	}
	return n, nil
}
