package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactq/internal/schema"
)

func TestQuery_BuildsChainInnermostFirst(t *testing.T) {
	c := NewParam("c", schema.ShapeContact)
	q := From(schema.ShapeContact).
		Where(Fn(c, Eq(c.Field("FirstName"), Lit("Ann")))).
		Take(5).
		Expr()

	take, ok := q.(*Call)
	require.True(t, ok)
	assert.Equal(t, Take, take.Method)
	assert.Equal(t, 5, take.Operand(0).(*Constant).Value)

	where, ok := take.Input().(*Call)
	require.True(t, ok)
	assert.Equal(t, Where, where.Method)

	src, ok := where.Input().(*Source)
	require.True(t, ok)
	assert.Equal(t, schema.ShapeContact, src.Shape)
}

func TestQuery_OptionalPredicate(t *testing.T) {
	c := NewParam("c", schema.ShapeContact)

	bare := From(schema.ShapeContact).Count().Expr().(*Call)
	assert.Len(t, bare.Args, 1)
	assert.Nil(t, bare.Operand(0))

	withPred := From(schema.ShapeContact).Count(Fn(c, Eq(c.Field("Starred"), Lit(true)))).Expr().(*Call)
	assert.Len(t, withPred.Args, 2)
}

func TestWithInput_DoesNotMutate(t *testing.T) {
	orig := From(schema.ShapeContact).Take(3).Expr().(*Call)
	src := &Source{Shape: schema.ShapePhone}

	rebuilt := orig.WithInput(src)

	assert.Same(t, src, rebuilt.Input())
	assert.NotSame(t, src, orig.Input())
	assert.Equal(t, schema.ShapeContact, orig.Input().(*Source).Shape)
	assert.Same(t, orig.Args[1], rebuilt.Args[1])
}

func TestUnwrap(t *testing.T) {
	c := NewParam("c", schema.ShapeContact)
	l := Fn(c, c.Field("DisplayName"))

	got, ok := AsLambda(Quote(l))
	require.True(t, ok)
	assert.Same(t, l, got)

	conv := &Unary{Op: OpConvert, Operand: c.Field("Starred")}
	assert.IsType(t, &Field{}, Unwrap(conv))

	not := Not(c.Field("Starred"))
	assert.Same(t, not, Unwrap(not))

	_, ok = AsLambda(Lit(1))
	assert.False(t, ok)
}

func TestFields(t *testing.T) {
	c := NewParam("c", schema.ShapeContact)
	body := And(
		Eq(c.Field("FirstName"), Lit("Ann")),
		Invoke(Any, c.Field("Emails")),
	)

	fields := Fields(Fn(c, body))
	require.Len(t, fields, 2)
	assert.Equal(t, "FirstName", fields[0].Name)
	assert.Equal(t, "Emails", fields[1].Name)
}

func TestParseMethod(t *testing.T) {
	m, ok := ParseMethod("orderByDescending")
	require.True(t, ok)
	assert.Equal(t, OrderByDescending, m)

	m, ok = ParseMethod("Reverse")
	assert.False(t, ok)
	assert.Equal(t, Method("Reverse"), m)
}

func TestFormat(t *testing.T) {
	c := NewParam("c", schema.ShapeContact)
	p := NewParam("p", schema.ShapePhone)

	testCases := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "where and take",
			expr: From(schema.ShapeContact).
				Where(Fn(c, And(Eq(c.Field("FirstName"), Lit("Ann")), Not(c.Field("Starred"))))).
				Take(5).Expr(),
			want: `contacts.where(c => ((c.FirstName == "Ann") && !c.Starred)).take(5)`,
		},
		{
			name: "null and any",
			expr: From(schema.ShapeContact).
				Count(Fn(c, Or(Ne(c.Field("Nickname"), Null()), Invoke(Any, c.Field("Emails"))))).Expr(),
			want: `contacts.count(c => ((c.Nickname != null) || c.Emails.any()))`,
		},
		{
			name: "non contact source",
			expr: From(schema.ShapePhone).OrderBy(Fn(p, p.Field("Number"))).Expr(),
			want: `from(Phone).orderBy(p => p.Number)`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.expr))
		})
	}
}
