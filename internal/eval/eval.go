package eval

import (
	"slices"
	"strings"

	"github.com/roach88/contactq/internal/expr"
)

// fielder is implemented by model entities.
type fielder interface {
	Field(name string) (any, bool)
}

// Run evaluates tree with every Source node bound to items. Sequence results
// are returned as []any; Count returns int, Any returns bool, and First and
// Single return the element (nil for the OrDefault variants on no match).
func Run(tree expr.Expr, items []any) (any, error) {
	ev := &evaluator{items: items}
	return ev.eval(tree, nil)
}

// Filter returns the items for which predicate holds, in order.
func Filter(items []any, predicate *expr.Lambda) ([]any, error) {
	ev := &evaluator{items: items}
	return ev.where(items, predicate, nil)
}

// Project reads field from every item.
func Project(items []any, field string) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, it := range items {
		v, err := member(it, field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// env binds lambda parameters. Inner lambdas see outer bindings.
type env struct {
	param *expr.Param
	value any
	outer *env
}

func (e *env) lookup(p *expr.Param) (any, bool) {
	for ; e != nil; e = e.outer {
		if e.param == p {
			return e.value, true
		}
	}
	return nil, false
}

type evaluator struct {
	items []any
}

func (ev *evaluator) eval(e expr.Expr, scope *env) (any, error) {
	switch n := e.(type) {
	case *expr.Source:
		return ev.items, nil
	case *expr.Constant:
		return n.Value, nil
	case *expr.Param:
		v, ok := scope.lookup(n)
		if !ok {
			return nil, errorf(CodeUnsupported, "unbound parameter %s", n.Name)
		}
		return v, nil
	case *expr.Field:
		obj, err := ev.eval(n.Object, scope)
		if err != nil {
			return nil, err
		}
		return member(obj, n.Name)
	case *expr.Unary:
		v, err := ev.eval(n.Operand, scope)
		if err != nil {
			return nil, err
		}
		if n.Op != expr.OpNot {
			return v, nil
		}
		b, err := truth(v)
		if err != nil {
			return nil, err
		}
		return !b, nil
	case *expr.Binary:
		return ev.binary(n, scope)
	case *expr.Call:
		return ev.call(n, scope)
	case *expr.Lambda:
		return nil, errorf(CodeUnsupported, "lambda used as a value")
	default:
		return nil, errorf(CodeUnsupported, "node %T", e)
	}
}

func member(obj any, name string) (any, error) {
	if obj == nil {
		return nil, nil
	}
	f, ok := obj.(fielder)
	if !ok {
		return nil, errorf(CodeTypeMismatch, "%T has no field %s", obj, name)
	}
	v, ok := f.Field(name)
	if !ok {
		return nil, errorf(CodeUnsupported, "unknown field %s on %T", name, obj)
	}
	return v, nil
}

func (ev *evaluator) binary(b *expr.Binary, scope *env) (any, error) {
	left, err := ev.eval(b.Left, scope)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case expr.OpAndAlso, expr.OpOrElse:
		lb, err := truth(left)
		if err != nil {
			return nil, err
		}
		if (b.Op == expr.OpAndAlso && !lb) || (b.Op == expr.OpOrElse && lb) {
			return lb, nil
		}
		right, err := ev.eval(b.Right, scope)
		if err != nil {
			return nil, err
		}
		return truth(right)
	}

	right, err := ev.eval(b.Right, scope)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case expr.OpEqual:
		return equal(left, right), nil
	case expr.OpNotEqual:
		return !equal(left, right), nil
	case expr.OpGreaterThan, expr.OpLessThan, expr.OpGreaterOrEqual, expr.OpLessOrEqual:
		if left == nil || right == nil {
			return false, nil
		}
		c, err := compare(left, right)
		if err != nil {
			return nil, err
		}
		switch b.Op {
		case expr.OpGreaterThan:
			return c > 0, nil
		case expr.OpLessThan:
			return c < 0, nil
		case expr.OpGreaterOrEqual:
			return c >= 0, nil
		default:
			return c <= 0, nil
		}
	case expr.OpAdd, expr.OpSubtract, expr.OpMultiply:
		return arith(b.Op, left, right)
	default:
		return nil, errorf(CodeUnsupported, "operator %s", b.Op)
	}
}

func (ev *evaluator) call(c *expr.Call, scope *env) (any, error) {
	if len(c.Args) == 0 {
		return nil, errorf(CodeUnsupported, "%s without receiver", c.Method)
	}
	if isOrder(c.Method) {
		return ev.order(c, scope)
	}
	recv, err := ev.eval(c.Input(), scope)
	if err != nil {
		return nil, err
	}

	switch c.Method {
	case expr.StartsWith, expr.EndsWith:
		return ev.stringMethod(c, recv, scope)
	case expr.Contains:
		if _, ok := recv.([]any); !ok {
			return ev.stringMethod(c, recv, scope)
		}
	}

	seq, err := sequence(c.Method, recv)
	if err != nil {
		return nil, err
	}

	switch c.Method {
	case expr.Where:
		l, err := lambdaArg(c)
		if err != nil {
			return nil, err
		}
		return ev.where(seq, l, scope)
	case expr.Select:
		return ev.selectSeq(c, seq, scope, false)
	case expr.SelectMany:
		return ev.selectSeq(c, seq, scope, true)
	case expr.Skip, expr.Take:
		n, err := ev.count(c, scope)
		if err != nil {
			return nil, err
		}
		n = min(n, len(seq))
		if c.Method == expr.Skip {
			return seq[n:], nil
		}
		return seq[:n], nil
	case expr.Count, expr.Any:
		matched, err := ev.optionalWhere(c, seq, scope)
		if err != nil {
			return nil, err
		}
		if c.Method == expr.Count {
			return len(matched), nil
		}
		return len(matched) > 0, nil
	case expr.First, expr.FirstOrDefault, expr.Single, expr.SingleOrDefault:
		matched, err := ev.optionalWhere(c, seq, scope)
		if err != nil {
			return nil, err
		}
		return element(c.Method, matched)
	case expr.Contains:
		v, err := ev.eval(c.Operand(0), scope)
		if err != nil {
			return nil, err
		}
		return slices.ContainsFunc(seq, func(x any) bool { return equal(x, v) }), nil
	default:
		return nil, errorf(CodeUnsupported, "method %s", c.Method)
	}
}

func sequence(m expr.Method, v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, errorf(CodeTypeMismatch, "%s needs a sequence, got %T", m, v)
	}
	return seq, nil
}

func lambdaArg(c *expr.Call) (*expr.Lambda, error) {
	l, ok := expr.AsLambda(c.Operand(0))
	if !ok {
		return nil, errorf(CodeUnsupported, "%s needs a lambda argument", c.Method)
	}
	return l, nil
}

func (ev *evaluator) apply(l *expr.Lambda, item any, scope *env) (any, error) {
	return ev.eval(l.Body, &env{param: l.Param, value: item, outer: scope})
}

func (ev *evaluator) where(seq []any, l *expr.Lambda, scope *env) ([]any, error) {
	out := make([]any, 0, len(seq))
	for _, it := range seq {
		v, err := ev.apply(l, it, scope)
		if err != nil {
			return nil, err
		}
		ok, err := truth(v)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (ev *evaluator) optionalWhere(c *expr.Call, seq []any, scope *env) ([]any, error) {
	if c.Operand(0) == nil {
		return seq, nil
	}
	l, err := lambdaArg(c)
	if err != nil {
		return nil, err
	}
	return ev.where(seq, l, scope)
}

func (ev *evaluator) selectSeq(c *expr.Call, seq []any, scope *env, flatten bool) ([]any, error) {
	l, err := lambdaArg(c)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(seq))
	for _, it := range seq {
		v, err := ev.apply(l, it, scope)
		if err != nil {
			return nil, err
		}
		if !flatten {
			if inner, ok := v.([]any); ok && c.Method == expr.Select && isEntitySeq(inner) {
				// Selecting a collection field flattens, as pushdown does.
				out = append(out, inner...)
				continue
			}
			out = append(out, v)
			continue
		}
		inner, err := sequence(c.Method, v)
		if err != nil {
			return nil, err
		}
		out = append(out, inner...)
	}
	return out, nil
}

func isEntitySeq(seq []any) bool {
	for _, v := range seq {
		if _, ok := v.(fielder); !ok {
			return false
		}
	}
	return true
}

func (ev *evaluator) count(c *expr.Call, scope *env) (int, error) {
	v, err := ev.eval(c.Operand(0), scope)
	if err != nil {
		return 0, err
	}
	var n int
	switch v := v.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case int32:
		n = int(v)
	default:
		return 0, errorf(CodeTypeMismatch, "%s needs an integer, got %T", c.Method, v)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

type sortKey struct {
	lambda *expr.Lambda
	desc   bool
}

// order sorts by the whole run of ordering calls ending at c. Ordering
// calls accumulate left to right: the first is the primary key and every
// later OrderBy or ThenBy breaks ties, also across intervening Where calls.
// Sorting is stable so equal keys keep their input order.
func (ev *evaluator) order(c *expr.Call, scope *env) (any, error) {
	keys, cur, err := orderRun(c)
	if err != nil {
		return nil, err
	}
	if cur.Method != expr.OrderBy && cur.Method != expr.OrderByDescending {
		return nil, errorf(CodeUnsupported, "%s without OrderBy", cur.Method)
	}
	prior, err := priorKeys(cur.Input())
	if err != nil {
		return nil, err
	}
	keys = append(prior, keys...)

	recv, err := ev.eval(cur.Input(), scope)
	if err != nil {
		return nil, err
	}
	seq, err := sequence(cur.Method, recv)
	if err != nil {
		return nil, err
	}

	type row struct {
		item any
		keys []any
	}
	rows := make([]row, len(seq))
	for i, it := range seq {
		rows[i] = row{item: it, keys: make([]any, len(keys))}
		for k, key := range keys {
			v, err := ev.apply(key.lambda, it, scope)
			if err != nil {
				return nil, err
			}
			rows[i].keys[k] = v
		}
	}

	var sortErr error
	slices.SortStableFunc(rows, func(a, b row) int {
		for k, key := range keys {
			c, err := orderCompare(a.keys[k], b.keys[k])
			if err != nil && sortErr == nil {
				sortErr = err
			}
			if c != 0 {
				if key.desc {
					return -c
				}
				return c
			}
		}
		return 0
	})
	if sortErr != nil {
		return nil, sortErr
	}

	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r.item
	}
	return out, nil
}

// orderRun collects the keys of the consecutive ordering calls ending at c,
// innermost first, and returns the innermost call of the run.
func orderRun(c *expr.Call) ([]sortKey, *expr.Call, error) {
	var keys []sortKey
	cur := c
	for {
		l, err := lambdaArg(cur)
		if err != nil {
			return nil, nil, err
		}
		desc := cur.Method == expr.OrderByDescending || cur.Method == expr.ThenByDescending
		keys = append([]sortKey{{lambda: l, desc: desc}}, keys...)

		prev, ok := cur.Input().(*expr.Call)
		if !ok || !isOrder(prev.Method) {
			return keys, cur, nil
		}
		cur = prev
	}
}

// priorKeys returns the keys of an ordering run reached from e through
// Where calls only. Its items are already sorted by those keys.
func priorKeys(e expr.Expr) ([]sortKey, error) {
	c, ok := e.(*expr.Call)
	for ok && c.Method == expr.Where {
		c, ok = c.Input().(*expr.Call)
	}
	if !ok || !isOrder(c.Method) {
		return nil, nil
	}
	keys, start, err := orderRun(c)
	if err != nil {
		return nil, err
	}
	prior, err := priorKeys(start.Input())
	if err != nil {
		return nil, err
	}
	return append(prior, keys...), nil
}

func isOrder(m expr.Method) bool {
	switch m {
	case expr.OrderBy, expr.OrderByDescending, expr.ThenBy, expr.ThenByDescending:
		return true
	default:
		return false
	}
}

func element(m expr.Method, seq []any) (any, error) {
	orDefault := m == expr.FirstOrDefault || m == expr.SingleOrDefault
	single := m == expr.Single || m == expr.SingleOrDefault

	switch {
	case len(seq) == 0 && orDefault:
		return nil, nil
	case len(seq) == 0:
		return nil, errorf(CodeNoElements, "%s on an empty sequence", m)
	case single && len(seq) > 1:
		return nil, errorf(CodeMultipleElements, "%s matched more than one element", m)
	default:
		return seq[0], nil
	}
}

func (ev *evaluator) stringMethod(c *expr.Call, recv any, scope *env) (any, error) {
	arg, err := ev.eval(c.Operand(0), scope)
	if err != nil {
		return nil, err
	}
	if recv == nil || arg == nil {
		return false, nil
	}
	s, ok := recv.(string)
	if !ok {
		return nil, errorf(CodeTypeMismatch, "%s needs a string receiver, got %T", c.Method, recv)
	}
	sub, ok := arg.(string)
	if !ok {
		return nil, errorf(CodeTypeMismatch, "%s needs a string argument, got %T", c.Method, arg)
	}
	switch c.Method {
	case expr.StartsWith:
		return strings.HasPrefix(s, sub), nil
	case expr.EndsWith:
		return strings.HasSuffix(s, sub), nil
	default:
		return strings.Contains(s, sub), nil
	}
}
