package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactq/internal/schema"
)

func lookups(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.String("lookup")
	}
	return out
}

func TestTableFor(t *testing.T) {
	testCases := []struct {
		collection string
		want       string
	}{
		{schema.CollectionContacts, "contacts"},
		{schema.CollectionRawContacts, "raw_contacts"},
		{schema.CollectionData, "data"},
		{schema.CollectionPhones, "phones"},
		{schema.CollectionEmails, "emails"},
		{schema.CollectionPostals, "postals"},
	}
	for _, tc := range testCases {
		got, err := TableFor(tc.collection)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := TableFor("content://elsewhere")
	assert.Error(t, err)
}

func TestQuery_Build(t *testing.T) {
	testCases := []struct {
		name     string
		q        Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "bare",
			q:       Query{Collection: schema.CollectionContacts, Limit: -1, Offset: -1},
			wantSQL: "SELECT * FROM contacts ORDER BY _id ASC",
		},
		{
			name: "where and sort",
			q: Query{
				Collection: schema.CollectionData,
				Where:      "((mimetype = ?) AND (data2 = ?))",
				Params:     []string{schema.ItemName, "Ann"},
				OrderBy:    "data3 DESC",
				Limit:      -1,
				Offset:     -1,
			},
			wantSQL:  "SELECT * FROM data WHERE ((mimetype = ?) AND (data2 = ?)) ORDER BY data3 DESC, _id ASC",
			wantArgs: []any{schema.ItemName, "Ann"},
		},
		{
			name:     "offset only",
			q:        Query{Collection: schema.CollectionContacts, Limit: -1, Offset: 10},
			wantSQL:  "SELECT * FROM contacts ORDER BY _id ASC LIMIT ? OFFSET ?",
			wantArgs: []any{-1, 10},
		},
		{
			name:     "limit only",
			q:        Query{Collection: schema.CollectionContacts, Limit: 5, Offset: -1},
			wantSQL:  "SELECT * FROM contacts ORDER BY _id ASC LIMIT ? OFFSET ?",
			wantArgs: []any{5, 0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args, err := tc.q.build("*")
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			if tc.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tc.wantArgs, args)
			}
		})
	}
}

func TestQuery_BuildRejectsPlaceholderMismatch(t *testing.T) {
	q := Query{Collection: schema.CollectionContacts, Where: "(display_name = ?)", Limit: -1, Offset: -1}
	_, _, err := q.build("*")
	assert.Error(t, err)
}

func TestStore_Query(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()

	rows, err := s.Query(ctx, Query{Collection: schema.CollectionContacts, Limit: -1, Offset: -1})
	require.NoError(t, err)
	assert.Equal(t, []string{"lookup-ann", "lookup-bob", "lookup-cal", "lookup-zoe"}, lookups(rows))

	rows, err = s.Query(ctx, Query{
		Collection: schema.CollectionContacts,
		Where:      "(starred = ?)",
		Params:     []string{"1"},
		Limit:      -1,
		Offset:     -1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lookup-ann"}, lookups(rows))

	rows, err = s.Query(ctx, Query{
		Collection: schema.CollectionContacts,
		OrderBy:    "display_name DESC",
		Limit:      2,
		Offset:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lookup-cal", "lookup-bob"}, lookups(rows))
}

func TestStore_QueryViews(t *testing.T) {
	s := createSeededStore(t)

	rows, err := s.Query(context.Background(), Query{
		Collection: schema.CollectionPhones,
		Where:      "(data1 > ?)",
		Params:     []string{"555-0100"},
		Limit:      -1,
		Offset:     -1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "555-0101", rows[0].String("data1"))
	assert.Equal(t, schema.ItemPhone, rows[1].String("mimetype"))
	assert.Equal(t, int64(2), rows[1].Int64("contact_id"))
}

func TestStore_Count(t *testing.T) {
	s := createSeededStore(t)
	ctx := context.Background()

	testCases := []struct {
		name string
		q    Query
		want int
	}{
		{"all contacts", Query{Collection: schema.CollectionContacts, Limit: -1, Offset: -1}, 4},
		{"data rows", Query{Collection: schema.CollectionData, Where: "(mimetype = ?)", Params: []string{schema.ItemOrganization}, Limit: -1, Offset: -1}, 2},
		{"respects limit", Query{Collection: schema.CollectionContacts, Limit: 3, Offset: -1}, 3},
		{"respects offset", Query{Collection: schema.CollectionContacts, Limit: -1, Offset: 3}, 1},
		{"offset past end", Query{Collection: schema.CollectionContacts, Limit: 2, Offset: 9}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := s.Count(ctx, tc.q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, n)
		})
	}
}

func TestStore_QueryBadSQL(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Query(context.Background(), Query{
		Collection: schema.CollectionContacts,
		Where:      "(no_such_column = ?)",
		Params:     []string{"x"},
		Limit:      -1,
		Offset:     -1,
	})
	assert.Error(t, err)
}
