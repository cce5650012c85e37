package predicate

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/resolve"
	"github.com/roach88/contactq/internal/schema"
)

// Result is the outcome of compiling one predicate.
type Result struct {
	// Table is the collection every field access resolved to. Zero when
	// Resolved is false.
	Table    resolve.Table
	Resolved bool

	// Where is the native predicate; discriminated tables carry the
	// "((mimetype = ?) AND ...)" prefix.
	Where  string
	Params []string

	// Body and BodyParams are Where and Params without the discriminator
	// clause, for callers that already constrain the discriminator.
	Body       string
	BodyParams []string

	// Residual holds the conjuncts that did not compile. They must be
	// applied in memory to the rows the native query returns.
	Residual []expr.Expr

	// Fallback is set when nothing usable compiled. Reason explains why.
	Fallback bool
	Reason   string
}

// Compile lowers body. When known is non-nil, every field access must resolve
// to that table.
func Compile(body expr.Expr, finder *resolve.Finder, known *resolve.Table) Result {
	st := state{}
	if known != nil {
		st = state{table: *known, fixed: true}
	}

	c := compiler{finder: finder}
	frag, st, err := c.compile(body, st, nil)
	if err != nil {
		return Result{Fallback: true, Reason: err.Error()}
	}

	res := Result{
		Table:      st.table,
		Resolved:   st.fixed,
		Where:      frag.sql,
		Params:     frag.params,
		Body:       frag.sql,
		BodyParams: frag.params,
		Residual:   frag.residual,
	}

	if st.fixed && st.table.Discriminator != "" {
		clause := fmt.Sprintf("(%s = ?)", schema.DiscriminatorColumn)
		if res.Where == "" {
			res.Where = clause
		} else {
			res.Where = "(" + clause + " AND " + res.Where + ")"
		}
		res.Params = append([]string{st.table.Discriminator}, res.Params...)
	}
	return res
}

// errUnsupported marks sub-expressions with no native rendering.
var errUnsupported = errors.New("unsupported")

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUnsupported, fmt.Sprintf(format, args...))
}

// state is the working table threaded through compilation. Functions take
// and return it by value; a failed branch simply drops its returned state.
type state struct {
	table resolve.Table
	fixed bool
}

type fragment struct {
	sql      string
	params   []string
	residual []expr.Expr
}

type compiler struct {
	finder *resolve.Finder
}

// compile renders e. hint is the column mapping of the field a constant is
// compared against; its value transform applies to the constant.
func (c compiler) compile(e expr.Expr, st state, hint *schema.ColumnMapping) (fragment, state, error) {
	switch n := e.(type) {
	case *expr.Field:
		return c.field(n, st)
	case *expr.Constant:
		frag, err := constant(n.Value, hint)
		return frag, st, err
	case *expr.Source:
		// Structural reference to the queryable, not a value.
		return fragment{}, st, nil
	case *expr.Lambda:
		return c.compile(n.Body, st, hint)
	case *expr.Unary:
		if n.Op == expr.OpNot {
			return fragment{}, st, unsupportedf("negation")
		}
		return c.compile(n.Operand, st, hint)
	case *expr.Binary:
		if n.Op == expr.OpAndAlso {
			return c.and(n, st)
		}
		return c.binary(n, st)
	case *expr.Call:
		return fragment{}, st, unsupportedf("method %s", n.Method)
	case *expr.Param:
		return fragment{}, st, unsupportedf("bare parameter %s", n.Name)
	default:
		return fragment{}, st, unsupportedf("node %T", e)
	}
}

func (c compiler) field(f *expr.Field, st state) (fragment, state, error) {
	table, ok := c.finder.Find(f)
	if !ok {
		return fragment{}, st, unsupportedf("unknown field %s.%s", f.Shape, f.Name)
	}
	if !st.fixed {
		st = state{table: table, fixed: true}
	} else if !st.table.Equal(table) {
		return fragment{}, st, unsupportedf("field %s.%s is in %s, predicate targets %s",
			f.Shape, f.Name, describe(table), describe(st.table))
	}

	mapping, ok := c.finder.Column(f)
	if !ok {
		return fragment{}, st, unsupportedf("unknown field %s.%s", f.Shape, f.Name)
	}
	switch len(mapping.Columns) {
	case 1:
		return fragment{sql: mapping.Columns[0]}, st, nil
	case 0:
		return fragment{}, st, unsupportedf("collection field %s.%s", f.Shape, f.Name)
	default:
		return fragment{}, st, unsupportedf("multi-column field %s.%s", f.Shape, f.Name)
	}
}

// and compiles a conjunction. A side that fails becomes residual as long as
// the other side compiles; the result is then exactly the compiled side.
func (c compiler) and(b *expr.Binary, st state) (fragment, state, error) {
	left, lst, lerr := c.compile(b.Left, st, nil)
	if lerr != nil {
		right, rst, rerr := c.compile(b.Right, st, nil)
		if rerr != nil {
			return fragment{}, st, lerr
		}
		right.residual = append([]expr.Expr{b.Left}, right.residual...)
		return right, rst, nil
	}

	right, rst, rerr := c.compile(b.Right, lst, nil)
	if rerr != nil {
		left.residual = append(left.residual, b.Right)
		return left, lst, nil
	}

	return join(left, right, " AND "), rst, nil
}

// binary compiles disjunctions and comparisons. Both operands must compile
// completely.
func (c compiler) binary(b *expr.Binary, st state) (fragment, state, error) {
	var joiner string
	switch b.Op {
	case expr.OpOrElse:
		joiner = " OR "
	case expr.OpEqual:
		joiner = " = "
		if isNull(b.Left) || isNull(b.Right) {
			joiner = " IS "
		}
	case expr.OpNotEqual:
		joiner = " IS NOT "
	case expr.OpGreaterThan:
		joiner = " > "
	case expr.OpLessThan:
		joiner = " < "
	default:
		return fragment{}, st, unsupportedf("operator %s", b.Op)
	}

	var hint *schema.ColumnMapping
	if b.Op != expr.OpOrElse {
		hint = c.comparedMapping(b)
	}

	left, st, err := c.compile(b.Left, st, hint)
	if err != nil {
		return fragment{}, st, err
	}
	right, st, err := c.compile(b.Right, st, hint)
	if err != nil {
		return fragment{}, st, err
	}
	if len(left.residual) > 0 || len(right.residual) > 0 {
		return fragment{}, st, unsupportedf("partial conjunction under %s", b.Op)
	}
	return join(left, right, joiner), st, nil
}

// comparedMapping returns the mapping of the field side of a comparison.
func (c compiler) comparedMapping(b *expr.Binary) *schema.ColumnMapping {
	for _, side := range []expr.Expr{b.Left, b.Right} {
		if f, ok := expr.Unwrap(side).(*expr.Field); ok {
			if m, ok := c.finder.Column(f); ok {
				return &m
			}
		}
	}
	return nil
}

func join(l, r fragment, joiner string) fragment {
	params := make([]string, 0, len(l.params)+len(r.params))
	params = append(params, l.params...)
	params = append(params, r.params...)

	var residual []expr.Expr
	residual = append(residual, l.residual...)
	residual = append(residual, r.residual...)

	return fragment{
		sql:      "(" + l.sql + joiner + r.sql + ")",
		params:   params,
		residual: residual,
	}
}

func constant(v any, hint *schema.ColumnMapping) (fragment, error) {
	if v == nil {
		return fragment{sql: "NULL"}, nil
	}
	if hint != nil && hint.ToQueryable != nil {
		v = hint.ToQueryable(v)
	}
	text, ok := Text(v)
	if !ok {
		return fragment{}, unsupportedf("constant of type %T", v)
	}
	return fragment{sql: "?", params: []string{text}}, nil
}

// Text renders a scalar as a bound parameter. Booleans become "1" or "0".
// The boolean is false for values with no scalar text form.
func Text(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case bool:
		if v {
			return "1", true
		}
		return "0", true
	case int:
		return strconv.Itoa(v), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'g', -1, 64), true
	default:
		return "", false
	}
}

func isNull(e expr.Expr) bool {
	c, ok := expr.Unwrap(e).(*expr.Constant)
	return ok && c.Value == nil
}

func describe(t resolve.Table) string {
	if t.Discriminator == "" {
		return t.Collection
	}
	return t.Collection + "[" + t.Discriminator + "]"
}
