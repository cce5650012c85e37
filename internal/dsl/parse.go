// Package dsl parses the textual query language into expression trees.
//
// A query is a method chain rooted at the contact collection:
//
//	contacts.where(c => c.FirstName == "Ann" && c.Emails.any()).orderBy(c => c.LastName).skip(10).take(5)
//
// Lambda parameters take their shape from the chain: the element shape of
// the pipeline at that point, or the element shape of the collection field a
// method is called on. Method and field names match case-insensitively.
// String literals are NFC-normalized.
package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/schema"
)

// RootName is the identifier a query starts from.
const RootName = "contacts"

// Error is a query that parsed but does not type-check.
type Error struct {
	Pos     lexer.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func errorAt(pos lexer.Position, format string, args ...any) *Error {
	return &Error{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Parser converts query text to expression trees using a schema registry to
// resolve fields.
type Parser struct {
	registry *schema.Registry
}

// New returns a Parser over registry.
func New(registry *schema.Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses src with the contact schema.
func Parse(src string) (expr.Expr, error) {
	return New(schema.NewRegistry()).Parse(src)
}

// Parse parses src into an expression tree.
func (p *Parser) Parse(src string) (expr.Expr, error) {
	ast, err := parser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return p.pipeline(ast)
}

// typ is the static type of a subexpression.
type typ struct {
	shape schema.Shape // entity or element shape; ShapeUnknown for scalars
	coll  bool
}

var scalar = typ{}

func (t typ) entity() bool { return !t.coll && t.shape != schema.ShapeUnknown }

func (t typ) String() string {
	switch {
	case t.coll:
		return "[]" + t.shape.String()
	case t.entity():
		return t.shape.String()
	default:
		return "scalar"
	}
}

type scope map[string]*expr.Param

func (s scope) with(p *expr.Param) scope {
	out := make(scope, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[p.Name] = p
	return out
}

func (p *Parser) pipeline(ch *chain) (expr.Expr, error) {
	root := ch.Primary
	if root.Ident == nil || !strings.EqualFold(*root.Ident, RootName) {
		return nil, errorAt(root.Pos, "query must start with %q", RootName)
	}

	q := expr.From(schema.ShapeContact)
	elem := typ{shape: schema.ShapeContact}

	for _, m := range ch.Members {
		if m.Call == nil {
			return nil, errorAt(m.Pos, "%s is not an operator call", m.Name)
		}
		method, _ := expr.ParseMethod(m.Name)

		operands := make([]expr.Expr, 0, len(m.Call.Args))
		var selector *typ
		for _, a := range m.Call.Args {
			e, t, err := p.arg(a, elem, nil)
			if err != nil {
				return nil, err
			}
			operands = append(operands, e)
			if a.Lambda != nil {
				selector = &t
			}
		}

		switch method {
		case expr.Select, expr.SelectMany:
			if selector == nil {
				return nil, errorAt(m.Pos, "%s needs a selector", method)
			}
			if selector.coll {
				elem = typ{shape: selector.shape}
			} else {
				elem = *selector
			}
		}
		q = q.Call(method, operands...)
	}
	return q.Expr(), nil
}

// arg converts a call argument. Lambda parameters get the type param.
// The returned type is the lambda body's type for lambdas.
func (p *Parser) arg(a *arg, param typ, env scope) (expr.Expr, typ, error) {
	if a.Lambda == nil {
		return p.or(a.Value, env)
	}
	if param.coll {
		param = typ{shape: param.shape}
	}
	prm := expr.NewParam(a.Lambda.Param, param.shape)
	body, t, err := p.or(a.Lambda.Body, env.with(prm))
	if err != nil {
		return nil, scalar, err
	}
	return expr.Fn(prm, body), t, nil
}

func (p *Parser) or(o *orExpr, env scope) (expr.Expr, typ, error) {
	left, t, err := p.and(o.Left, env)
	if err != nil {
		return nil, scalar, err
	}
	for _, r := range o.Right {
		right, _, err := p.and(r, env)
		if err != nil {
			return nil, scalar, err
		}
		left, t = expr.Or(left, right), scalar
	}
	return left, t, nil
}

func (p *Parser) and(a *andExpr, env scope) (expr.Expr, typ, error) {
	left, t, err := p.cmp(a.Left, env)
	if err != nil {
		return nil, scalar, err
	}
	for _, r := range a.Right {
		right, _, err := p.cmp(r, env)
		if err != nil {
			return nil, scalar, err
		}
		left, t = expr.And(left, right), scalar
	}
	return left, t, nil
}

var comparisons = map[string]func(l, r expr.Expr) *expr.Binary{
	"==": expr.Eq,
	"!=": expr.Ne,
	">":  expr.Gt,
	"<":  expr.Lt,
	">=": expr.Ge,
	"<=": expr.Le,
}

func (p *Parser) cmp(c *cmpExpr, env scope) (expr.Expr, typ, error) {
	left, t, err := p.add(c.Left, env)
	if err != nil || c.Tail == nil {
		return left, t, err
	}
	right, _, err := p.add(c.Tail.Right, env)
	if err != nil {
		return nil, scalar, err
	}
	return comparisons[c.Tail.Op](left, right), scalar, nil
}

func (p *Parser) add(a *addExpr, env scope) (expr.Expr, typ, error) {
	left, t, err := p.mul(a.Left, env)
	if err != nil {
		return nil, scalar, err
	}
	for _, r := range a.Rest {
		right, _, err := p.mul(r.Right, env)
		if err != nil {
			return nil, scalar, err
		}
		if r.Op == "+" {
			left = expr.Add(left, right)
		} else {
			left = expr.Sub(left, right)
		}
		t = scalar
	}
	return left, t, nil
}

func (p *Parser) mul(m *mulExpr, env scope) (expr.Expr, typ, error) {
	left, t, err := p.unary(m.Left, env)
	if err != nil {
		return nil, scalar, err
	}
	for _, r := range m.Right {
		right, _, err := p.unary(r, env)
		if err != nil {
			return nil, scalar, err
		}
		left, t = expr.Mul(left, right), scalar
	}
	return left, t, nil
}

func (p *Parser) unary(u *unaryExpr, env scope) (expr.Expr, typ, error) {
	if u.Not != nil {
		x, _, err := p.unary(u.Not, env)
		if err != nil {
			return nil, scalar, err
		}
		return expr.Not(x), scalar, nil
	}
	return p.chain(u.Value, env)
}

// Methods callable inside lambdas, and whether they keep the receiver's
// collection type.
var lambdaMethods = map[expr.Method]bool{
	expr.Any:        false,
	expr.Count:      false,
	expr.Contains:   false,
	expr.StartsWith: false,
	expr.EndsWith:   false,
	expr.Where:      true,
}

func (p *Parser) chain(ch *chain, env scope) (expr.Expr, typ, error) {
	e, t, err := p.primary(ch.Primary, env)
	if err != nil {
		return nil, scalar, err
	}

	for _, m := range ch.Members {
		if m.Call == nil {
			if !t.entity() {
				return nil, scalar, errorAt(m.Pos, "cannot access %s on %s", m.Name, t)
			}
			name, ok := p.fieldName(t.shape, m.Name)
			if !ok {
				return nil, scalar, errorAt(m.Pos, "%s has no field %s", t.shape, m.Name)
			}
			ft, _ := p.registry.FieldType(t.shape, name)
			e = &expr.Field{Object: e, Shape: t.shape, Name: name}
			if ft.IsCollection() {
				t = typ{shape: ft.Elem, coll: true}
			} else {
				t = scalar
			}
			continue
		}

		method, known := expr.ParseMethod(m.Name)
		keeps, allowed := lambdaMethods[method]
		if !known || !allowed {
			return nil, scalar, errorAt(m.Pos, "method %s is not available inside a lambda", m.Name)
		}
		operands := make([]expr.Expr, 0, len(m.Call.Args))
		for _, a := range m.Call.Args {
			op, _, err := p.arg(a, t, env)
			if err != nil {
				return nil, scalar, err
			}
			operands = append(operands, op)
		}
		e = expr.Invoke(method, e, operands...)
		if !keeps {
			t = scalar
		}
	}
	return e, t, nil
}

func (p *Parser) primary(pr *primary, env scope) (expr.Expr, typ, error) {
	switch {
	case pr.String != nil:
		return expr.Lit(norm.NFC.String(*pr.String)), scalar, nil
	case pr.Number != nil:
		if strings.Contains(*pr.Number, ".") {
			f, err := strconv.ParseFloat(*pr.Number, 64)
			if err != nil {
				return nil, scalar, errorAt(pr.Pos, "bad number %s", *pr.Number)
			}
			return expr.Lit(f), scalar, nil
		}
		n, err := strconv.Atoi(*pr.Number)
		if err != nil {
			return nil, scalar, errorAt(pr.Pos, "bad number %s", *pr.Number)
		}
		return expr.Lit(n), scalar, nil
	case pr.Bool != nil:
		return expr.Lit(*pr.Bool == "true"), scalar, nil
	case pr.Null:
		return expr.Null(), scalar, nil
	case pr.Ident != nil:
		prm, ok := env[*pr.Ident]
		if !ok {
			return nil, scalar, errorAt(pr.Pos, "unknown identifier %s", *pr.Ident)
		}
		return prm, typ{shape: prm.Shape}, nil
	case pr.Group != nil:
		return p.or(pr.Group, env)
	}
	return nil, scalar, errorAt(pr.Pos, "empty expression")
}

// fieldName resolves name against the fields of shape, ignoring case.
func (p *Parser) fieldName(shape schema.Shape, name string) (string, bool) {
	for _, f := range p.registry.Fields(shape) {
		if strings.EqualFold(f, name) {
			return f, true
		}
	}
	return "", false
}
