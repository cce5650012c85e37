package expr

import "github.com/roach88/contactq/internal/schema"

// Node constructors. They keep test and DSL code close to the query text.

// Lit returns a constant node.
func Lit(v any) *Constant { return &Constant{Value: v} }

// Null returns the null literal.
func Null() *Constant { return &Constant{} }

// NewParam returns a lambda parameter of the given shape.
func NewParam(name string, shape schema.Shape) *Param {
	return &Param{Name: name, Shape: shape}
}

// Field returns an access to member name of the parameter.
func (p *Param) Field(name string) *Field {
	return &Field{Object: p, Shape: p.Shape, Name: name}
}

// Fn returns a lambda over p.
func Fn(p *Param, body Expr) *Lambda { return &Lambda{Param: p, Body: body} }

// Eq returns l == r.
func Eq(l, r Expr) *Binary { return &Binary{Op: OpEqual, Left: l, Right: r} }

// Ne returns l != r.
func Ne(l, r Expr) *Binary { return &Binary{Op: OpNotEqual, Left: l, Right: r} }

// Gt returns l > r.
func Gt(l, r Expr) *Binary { return &Binary{Op: OpGreaterThan, Left: l, Right: r} }

// Lt returns l < r.
func Lt(l, r Expr) *Binary { return &Binary{Op: OpLessThan, Left: l, Right: r} }

// Ge returns l >= r.
func Ge(l, r Expr) *Binary { return &Binary{Op: OpGreaterOrEqual, Left: l, Right: r} }

// Le returns l <= r.
func Le(l, r Expr) *Binary { return &Binary{Op: OpLessOrEqual, Left: l, Right: r} }

// And returns l && r.
func And(l, r Expr) *Binary { return &Binary{Op: OpAndAlso, Left: l, Right: r} }

// Or returns l || r.
func Or(l, r Expr) *Binary { return &Binary{Op: OpOrElse, Left: l, Right: r} }

// Add returns l + r.
func Add(l, r Expr) *Binary { return &Binary{Op: OpAdd, Left: l, Right: r} }

// Sub returns l - r.
func Sub(l, r Expr) *Binary { return &Binary{Op: OpSubtract, Left: l, Right: r} }

// Mul returns l * r.
func Mul(l, r Expr) *Binary { return &Binary{Op: OpMultiply, Left: l, Right: r} }

// Not returns !x.
func Not(x Expr) *Unary { return &Unary{Op: OpNot, Operand: x} }

// Quote wraps a lambda the way an operator argument is passed.
func Quote(l *Lambda) *Unary { return &Unary{Op: OpQuote, Operand: l} }

// Invoke returns a call of m on receiver with the given operands.
func Invoke(m Method, receiver Expr, operands ...Expr) *Call {
	args := make([]Expr, 0, len(operands)+1)
	args = append(args, receiver)
	args = append(args, operands...)
	return &Call{Method: m, Args: args}
}

// Query composes a pipeline fluently:
//
//	c := expr.NewParam("c", schema.ShapeContact)
//	q := expr.From(schema.ShapeContact).
//		Where(expr.Fn(c, expr.Eq(c.Field("FirstName"), expr.Lit("Ann")))).
//		Take(5)
type Query struct {
	root Expr
}

// From starts a pipeline over a source of shape.
func From(shape schema.Shape) Query {
	return Query{root: &Source{Shape: shape}}
}

// On starts a pipeline from an existing tree.
func On(e Expr) Query { return Query{root: e} }

// Expr returns the built tree.
func (q Query) Expr() Expr { return q.root }

// Call appends an arbitrary operator.
func (q Query) Call(m Method, operands ...Expr) Query {
	return Query{root: Invoke(m, q.root, operands...)}
}

func (q Query) lambdaOp(m Method, l []*Lambda) Query {
	if len(l) == 0 || l[0] == nil {
		return q.Call(m)
	}
	return q.Call(m, l[0])
}

func (q Query) Where(l *Lambda) Query             { return q.Call(Where, l) }
func (q Query) Select(l *Lambda) Query            { return q.Call(Select, l) }
func (q Query) SelectMany(l *Lambda) Query        { return q.Call(SelectMany, l) }
func (q Query) OrderBy(l *Lambda) Query           { return q.Call(OrderBy, l) }
func (q Query) OrderByDescending(l *Lambda) Query { return q.Call(OrderByDescending, l) }
func (q Query) ThenBy(l *Lambda) Query            { return q.Call(ThenBy, l) }
func (q Query) ThenByDescending(l *Lambda) Query  { return q.Call(ThenByDescending, l) }
func (q Query) Skip(n int) Query                  { return q.Call(Skip, Lit(n)) }
func (q Query) Take(n int) Query                  { return q.Call(Take, Lit(n)) }

// Count, Any, First, FirstOrDefault, Single and SingleOrDefault take an
// optional predicate.
func (q Query) Count(l ...*Lambda) Query           { return q.lambdaOp(Count, l) }
func (q Query) Any(l ...*Lambda) Query             { return q.lambdaOp(Any, l) }
func (q Query) First(l ...*Lambda) Query           { return q.lambdaOp(First, l) }
func (q Query) FirstOrDefault(l ...*Lambda) Query  { return q.lambdaOp(FirstOrDefault, l) }
func (q Query) Single(l ...*Lambda) Query          { return q.lambdaOp(Single, l) }
func (q Query) SingleOrDefault(l ...*Lambda) Query { return q.lambdaOp(SingleOrDefault, l) }

// AsLambda strips quote and convert wrappers and returns the lambda inside.
func AsLambda(e Expr) (*Lambda, bool) {
	l, ok := Unwrap(e).(*Lambda)
	return l, ok
}

// Unwrap strips quote and convert wrappers, which carry no query semantics.
func Unwrap(e Expr) Expr {
	for {
		u, ok := e.(*Unary)
		if !ok || u.Op == OpNot {
			return e
		}
		e = u.Operand
	}
}

// Fields collects the member accesses in e in pre-order. The object of a
// member access is not searched.
func Fields(e Expr) []*Field {
	var out []*Field
	var walk func(Expr)
	walk = func(n Expr) {
		switch n := n.(type) {
		case *Field:
			out = append(out, n)
		case *Lambda:
			walk(n.Body)
		case *Binary:
			walk(n.Left)
			walk(n.Right)
		case *Unary:
			walk(n.Operand)
		case *Call:
			for _, a := range n.Args {
				walk(a)
			}
		case *Source, *Constant, *Param, nil:
		}
	}
	walk(e)
	return out
}
