package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/model"
	"github.com/roach88/contactq/internal/schema"
)

var (
	c = expr.NewParam("c", schema.ShapeContact)
	e = expr.NewParam("e", schema.ShapeEmail)
	p = expr.NewParam("p", schema.ShapePhone)
)

func people() []any {
	return model.Items([]*model.Contact{
		{
			ID: "1", DisplayName: "Ann Lee", FirstName: "Ann", LastName: "Lee", Starred: true,
			Emails: []*model.Email{{Address: "ann@example.com", Label: "work"}},
			Phones: []*model.Phone{{Number: "555-0100"}, {Number: "555-0101"}},
		},
		{
			ID: "2", DisplayName: "Bob Stone", FirstName: "Bob", LastName: "Stone", Nickname: "Bobby",
			Phones: []*model.Phone{{Number: "555-0200"}},
		},
		{
			ID: "3", DisplayName: "Cal Lee", FirstName: "Cal", LastName: "Lee",
			Emails: []*model.Email{{Address: "cal@example.org"}},
		},
		{ID: "4", DisplayName: "Dee"},
	})
}

func ids(t *testing.T, v any) []string {
	t.Helper()
	seq, ok := v.([]any)
	require.True(t, ok, "want sequence, got %T", v)
	out := make([]string, len(seq))
	for i, it := range seq {
		out[i] = it.(*model.Contact).ID
	}
	return out
}

func run(t *testing.T, q expr.Query) any {
	t.Helper()
	v, err := Run(q.Expr(), people())
	require.NoError(t, err)
	return v
}

func contacts() expr.Query { return expr.From(schema.ShapeContact) }

func TestRun_Where(t *testing.T) {
	testCases := []struct {
		name string
		body expr.Expr
		want []string
	}{
		{"equality", expr.Eq(c.Field("LastName"), expr.Lit("Lee")), []string{"1", "3"}},
		{"null check", expr.Ne(c.Field("Nickname"), expr.Null()), []string{"2"}},
		{"is null", expr.Eq(c.Field("FirstName"), expr.Null()), []string{"4"}},
		{"bool field", expr.Eq(c.Field("Starred"), expr.Lit(true)), []string{"1"}},
		{"not", expr.Not(c.Field("Starred")), []string{"2", "3", "4"}},
		{"or", expr.Or(expr.Eq(c.Field("FirstName"), expr.Lit("Bob")), expr.Eq(c.Field("FirstName"), expr.Lit("Dee"))), []string{"2"}},
		{"greater than", expr.Gt(c.Field("DisplayName"), expr.Lit("Bob")), []string{"2", "3", "4"}},
		{"null never orders", expr.Lt(c.Field("FirstName"), expr.Lit("Zed")), []string{"1", "2", "3"}},
		{"collection any", expr.Invoke(expr.Any, c.Field("Emails")), []string{"1", "3"}},
		{
			"collection any with predicate",
			expr.Invoke(expr.Any, c.Field("Emails"), expr.Fn(e, expr.Invoke(expr.EndsWith, e.Field("Address"), expr.Lit(".org")))),
			[]string{"3"},
		},
		{"collection count", expr.Gt(expr.Invoke(expr.Count, c.Field("Phones")), expr.Lit(1)), []string{"1"}},
		{"starts with", expr.Invoke(expr.StartsWith, c.Field("DisplayName"), expr.Lit("C")), []string{"3"}},
		{"contains on null", expr.Invoke(expr.Contains, c.Field("Nickname"), expr.Lit("ob")), []string{"2"}},
		{"string concat", expr.Eq(expr.Add(c.Field("FirstName"), expr.Lit("!")), expr.Lit("Ann!")), []string{"1"}},
		{"text against number", expr.Eq(c.Field("Id"), expr.Lit(3)), []string{"3"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := run(t, contacts().Where(expr.Fn(c, tc.body)))
			assert.Equal(t, tc.want, ids(t, got))
		})
	}
}

func TestRun_OrderIsStableAndNullsFirst(t *testing.T) {
	got := run(t, contacts().
		OrderBy(expr.Fn(c, c.Field("LastName"))).
		ThenByDescending(expr.Fn(c, c.Field("FirstName"))))
	assert.Equal(t, []string{"4", "3", "1", "2"}, ids(t, got))

	got = run(t, contacts().OrderByDescending(expr.Fn(c, c.Field("Starred"))))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(t, got))
}

func TestRun_OrderingsAccumulate(t *testing.T) {
	testCases := []struct {
		name string
		q    expr.Query
		want []string
	}{
		{
			name: "later order by breaks ties",
			q: contacts().
				OrderBy(expr.Fn(c, c.Field("LastName"))).
				OrderByDescending(expr.Fn(c, c.Field("FirstName"))),
			want: []string{"4", "3", "1", "2"},
		},
		{
			name: "across where",
			q: contacts().
				OrderBy(expr.Fn(c, c.Field("LastName"))).
				Where(expr.Fn(c, expr.Eq(c.Field("Starred"), expr.Lit(false)))).
				OrderBy(expr.Fn(c, c.Field("FirstName"))),
			want: []string{"4", "3", "2"},
		},
		{
			name: "paging resets the ordering",
			q: contacts().
				OrderBy(expr.Fn(c, c.Field("LastName"))).
				Take(3).
				OrderByDescending(expr.Fn(c, c.Field("FirstName"))),
			want: []string{"3", "1", "4"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(t, run(t, tc.q)))
		})
	}
}

func TestRun_ThenByWithoutOrderBy(t *testing.T) {
	_, err := Run(contacts().ThenBy(expr.Fn(c, c.Field("LastName"))).Expr(), people())
	require.Error(t, err)
}

func TestRun_SkipTake(t *testing.T) {
	assert.Equal(t, []string{"2", "3"}, ids(t, run(t, contacts().Skip(1).Take(2))))
	assert.Equal(t, []string{"2"}, ids(t, run(t, contacts().Take(2).Skip(1))))
	assert.Empty(t, ids(t, run(t, contacts().Skip(10))))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(t, run(t, contacts().Take(99))))
}

func TestRun_Terminals(t *testing.T) {
	lee := expr.Fn(c, expr.Eq(c.Field("LastName"), expr.Lit("Lee")))

	assert.Equal(t, 4, run(t, contacts().Count()))
	assert.Equal(t, 2, run(t, contacts().Count(lee)))
	assert.Equal(t, true, run(t, contacts().Any(lee)))
	assert.Equal(t, false, run(t, contacts().Any(expr.Fn(c, expr.Eq(c.Field("LastName"), expr.Lit("Nope"))))))

	first := run(t, contacts().First(lee))
	assert.Equal(t, "1", first.(*model.Contact).ID)

	assert.Nil(t, run(t, contacts().FirstOrDefault(expr.Fn(c, expr.Eq(c.Field("Id"), expr.Lit("9"))))))

	single := run(t, contacts().Single(expr.Fn(c, expr.Eq(c.Field("Id"), expr.Lit("2")))))
	assert.Equal(t, "Bob Stone", single.(*model.Contact).DisplayName)
}

func TestRun_ElementErrors(t *testing.T) {
	lee := expr.Fn(c, expr.Eq(c.Field("LastName"), expr.Lit("Lee")))
	none := expr.Fn(c, expr.Eq(c.Field("LastName"), expr.Lit("Nope")))

	_, err := Run(contacts().Single(lee).Expr(), people())
	assert.True(t, IsMultipleElements(err))

	_, err = Run(contacts().SingleOrDefault(lee).Expr(), people())
	assert.True(t, IsMultipleElements(err))

	_, err = Run(contacts().First(none).Expr(), people())
	assert.True(t, IsNoElements(err))

	_, err = Run(contacts().Single(none).Expr(), people())
	assert.True(t, IsNoElements(err))

	v, err := Run(contacts().SingleOrDefault(none).Expr(), people())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRun_SelectAndFlatten(t *testing.T) {
	names := run(t, contacts().Take(2).Select(expr.Fn(c, c.Field("FirstName"))))
	assert.Equal(t, []any{"Ann", "Bob"}, names)

	for _, m := range []expr.Method{expr.Select, expr.SelectMany} {
		phones := run(t, contacts().Call(m, expr.Fn(c, c.Field("Phones"))))
		seq := phones.([]any)
		require.Len(t, seq, 3, string(m))
		assert.Equal(t, "555-0200", seq[2].(*model.Phone).Number)
	}

	numbers := run(t, contacts().
		SelectMany(expr.Fn(c, c.Field("Phones"))).
		Where(expr.Fn(p, expr.Gt(p.Field("Number"), expr.Lit("555-0100")))).
		Select(expr.Fn(p, p.Field("Number"))))
	assert.Equal(t, []any{"555-0101", "555-0200"}, numbers)
}

func TestRun_Errors(t *testing.T) {
	testCases := []struct {
		name string
		q    expr.Query
		code ErrorCode
	}{
		{"unknown field", contacts().Where(expr.Fn(c, expr.Eq(c.Field("Birthday"), expr.Lit(1)))), CodeUnsupported},
		{"non bool predicate", contacts().Where(expr.Fn(c, c.Field("DisplayName"))), CodeTypeMismatch},
		{"unknown method", contacts().Call("Reverse"), CodeUnsupported},
		{"ordering mismatch", contacts().Where(expr.Fn(c, expr.Gt(c.Field("Starred"), expr.Lit([]int{1})))), CodeTypeMismatch},
		{"take needs int", contacts().Call(expr.Take, expr.Lit("2")), CodeTypeMismatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(tc.q.Expr(), people())
			require.Error(t, err)
			var ee *Error
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tc.code, ee.Code)
		})
	}
}

func TestFilter(t *testing.T) {
	got, err := Filter(people(), expr.Fn(c, expr.Invoke(expr.Any, c.Field("Phones"))))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(t, got))
}

func TestProject(t *testing.T) {
	got, err := Project(people(), "Nickname")
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "Bobby", nil, nil}, got)

	_, err = Project([]any{"not an entity"}, "Nickname")
	assert.True(t, IsTypeMismatch(err))
}
