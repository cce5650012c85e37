package translate

import (
	"fmt"
	"strings"

	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/predicate"
	"github.com/roach88/contactq/internal/resolve"
	"github.com/roach88/contactq/internal/schema"
)

// Translator converts expression trees to descriptors for one aggregation
// mode. It holds no per-query state and is safe for concurrent use.
type Translator struct {
	finder *resolve.Finder
}

// New returns a Translator over registry for mode.
func New(registry *schema.Registry, mode schema.Mode) *Translator {
	return &Translator{finder: resolve.NewFinder(registry, mode)}
}

// Mode returns the aggregation mode the translator targets.
func (t *Translator) Mode() schema.Mode { return t.finder.Mode() }

// Translate folds tree into a descriptor. Unsupported constructs set
// Fallback; an error is returned only for trees that have no defined
// rendering at all (see UnsupportedError).
func (t *Translator) Translate(tree expr.Expr) (*Descriptor, error) {
	if tree == nil {
		return nil, &UnsupportedError{Code: CodeNilTree, Message: "nil expression tree"}
	}

	s := &translation{
		finder: t.finder,
		d: &Descriptor{
			Skip: Unset,
			Take: Unset,
		},
	}

	remaining, err := s.visit(tree)
	if err != nil {
		return nil, err
	}
	return s.finish(tree, remaining), nil
}

// translation is the accumulator of one Translate call.
type translation struct {
	finder *resolve.Finder
	d      *Descriptor

	table resolve.Table
	fixed bool

	where      []string
	params     []string
	sort       []string
	discClause bool // discriminator equality already in where

	pages    []expr.Method // skip/take calls in application order
	consumed bool          // projection or terminal operator applied
}

func (s *translation) finish(original, remaining expr.Expr) *Descriptor {
	d := s.d
	if !s.fixed {
		s.table = s.finder.DefaultTable()
	}
	d.Collection = s.table.Collection
	d.Discriminator = s.table.Discriminator
	d.Where = strings.Join(s.where, " AND ")
	d.Params = s.params
	d.Sort = strings.Join(s.sort, ", ")

	if d.Fallback {
		d.Remaining = original
		d.Residual = nil
	} else {
		d.Remaining = remaining
	}
	return d
}

// fallback marks the translation unusable for pushdown. The first reason
// is kept.
func (s *translation) fallback(format string, args ...any) {
	if !s.d.Fallback {
		s.d.Fallback = true
		s.d.Reason = fmt.Sprintf(format, args...)
	}
}

func (s *translation) paged() bool { return len(s.pages) > 0 }

func (s *translation) visit(e expr.Expr) (expr.Expr, error) {
	switch n := e.(type) {
	case *expr.Source:
		if n.Shape != schema.ShapeContact {
			return nil, &UnsupportedError{
				Code:    CodeUnsupportedSource,
				Message: fmt.Sprintf("query must start from contacts, got %s", n.Shape),
			}
		}
		s.d.Result = ResultType{Shape: n.Shape}
		return n, nil
	case *expr.Constant:
		return n, nil
	case *expr.Call:
		return s.visitCall(n)
	default:
		s.fallback("unexpected %T at pipeline position", e)
		return e, nil
	}
}

func (s *translation) visitCall(call *expr.Call) (expr.Expr, error) {
	switch call.Input().(type) {
	case *expr.Source, *expr.Constant, *expr.Call:
	default:
		s.fallback("%s has no queryable input", call.Method)
		return call, nil
	}

	in, err := s.visit(call.Input())
	if err != nil {
		return nil, err
	}
	if in != call.Input() {
		call = call.WithInput(in)
	}

	if s.d.Fallback || s.consumed {
		// Paging stays bookkeeping after fallback. After a projection the
		// call is evaluated from Remaining and must not be recorded twice.
		if s.d.Fallback && (call.Method == expr.Skip || call.Method == expr.Take) {
			if n, ok := pageCount(call); ok {
				s.setPage(call.Method, n)
			}
		}
		return call, nil
	}

	switch call.Method {
	case expr.Where:
		return s.visitWhere(call), nil
	case expr.Select:
		return s.visitSelect(call), nil
	case expr.SelectMany:
		return s.visitSelectMany(call), nil
	case expr.OrderBy, expr.OrderByDescending, expr.ThenBy, expr.ThenByDescending:
		return s.visitOrder(call)
	case expr.Skip, expr.Take:
		return s.visitPage(call), nil
	case expr.Count:
		return s.visitTerminal(call, func() {
			s.d.IsCount = true
			s.d.Result.Kind = schema.KindInt
		}), nil
	case expr.Any:
		return s.visitTerminal(call, func() {
			s.d.IsAny = true
			s.d.Result.Kind = schema.KindBool
		}), nil
	case expr.First, expr.FirstOrDefault:
		return s.visitElement(call, TakeFirst), nil
	case expr.Single, expr.SingleOrDefault:
		return s.visitElement(call, TakeSingle), nil
	default:
		s.fallback("operator %s is not supported", call.Method)
		return call, nil
	}
}

func (s *translation) visitWhere(call *expr.Call) expr.Expr {
	l, ok := expr.AsLambda(call.Operand(0))
	if !ok {
		s.fallback("Where without a predicate")
		return call
	}
	if !s.applyPredicate(call.Method, l) {
		return call
	}
	return call.Input()
}

// applyPredicate compiles l into the accumulated where clause.
func (s *translation) applyPredicate(op expr.Method, l *expr.Lambda) bool {
	if s.paged() {
		s.fallback("%s predicate applied after skip/take", op)
		return false
	}

	var known *resolve.Table
	if s.fixed {
		known = &s.table
	}
	res := predicate.Compile(l.Body, s.finder, known)
	if res.Fallback {
		s.fallback("%s: %s", op, res.Reason)
		return false
	}
	if !res.Resolved {
		s.fallback("%s predicate references no field", op)
		return false
	}

	s.table, s.fixed = res.Table, true
	where, params := res.Where, res.Params
	if s.discClause {
		where, params = res.Body, res.BodyParams
	}
	if where != "" {
		s.where = append(s.where, where)
		s.params = append(s.params, params...)
	}
	if res.Table.Discriminator != "" {
		s.discClause = true
	}
	for _, r := range res.Residual {
		s.d.Residual = append(s.d.Residual, expr.Fn(l.Param, r))
	}
	return true
}

// fieldOperand returns the member a Select, SelectMany or ordering lambda
// returns. The lambda body must be that member access alone.
func (s *translation) fieldOperand(call *expr.Call) (*expr.Field, bool) {
	l, ok := expr.AsLambda(call.Operand(0))
	if !ok {
		s.fallback("%s without a selector", call.Method)
		return nil, false
	}
	f, ok := expr.Unwrap(l.Body).(*expr.Field)
	if !ok {
		s.fallback("%s selector must be a single field", call.Method)
		return nil, false
	}
	if _, ok := f.Object.(*expr.Param); !ok {
		s.fallback("%s selector must access a field of its parameter", call.Method)
		return nil, false
	}
	return f, true
}

// pin fixes the collection from a field used outside a predicate. A
// discriminated collection adds its equality clause once.
func (s *translation) pin(op expr.Method, f *expr.Field) bool {
	table, ok := s.finder.Find(f)
	if !ok {
		s.fallback("%s: unknown field %s.%s", op, f.Shape, f.Name)
		return false
	}

	if s.fixed {
		if !s.table.Equal(table) {
			s.fallback("%s: field %s.%s is outside the query collection", op, f.Shape, f.Name)
			return false
		}
	} else {
		if s.paged() && !table.Equal(s.finder.DefaultTable()) {
			s.fallback("%s changes the collection after skip/take", op)
			return false
		}
		s.table, s.fixed = table, true
	}

	if table.Discriminator != "" && !s.discClause {
		s.where = append(s.where, fmt.Sprintf("(%s = ?)", schema.DiscriminatorColumn))
		s.params = append(s.params, table.Discriminator)
		s.discClause = true
	}
	return true
}

func (s *translation) visitSelect(call *expr.Call) expr.Expr {
	f, ok := s.fieldOperand(call)
	if !ok {
		return call
	}
	mapping, ok := s.finder.Column(f)
	if !ok {
		s.fallback("Select: unknown field %s.%s", f.Shape, f.Name)
		return call
	}
	if mapping.Type.IsCollection() {
		return s.flatten(call, f, mapping.Type)
	}
	if mapping.IsSynthetic() {
		s.fallback("Select: field %s.%s has no column", f.Shape, f.Name)
		return call
	}
	if !s.pin(call.Method, f) {
		return call
	}

	s.d.Projection = &Projection{Shape: f.Shape, Field: f.Name, Mapping: mapping}
	s.d.Result = ResultType{Shape: f.Shape, Kind: mapping.Type.Kind}
	s.consumed = true
	return call.Input()
}

func (s *translation) visitSelectMany(call *expr.Call) expr.Expr {
	l, ok := expr.AsLambda(call.Operand(0))
	if !ok {
		s.fallback("SelectMany without a selector")
		return call
	}
	if fields := expr.Fields(l.Body); len(fields) != 1 {
		s.fallback("SelectMany selector must access exactly one field, found %d", len(fields))
		return call
	}
	f, ok := s.fieldOperand(call)
	if !ok {
		return call
	}
	typ, ok := s.finder.Registry().FieldType(f.Shape, f.Name)
	if !ok || !typ.IsCollection() {
		s.fallback("SelectMany: field %s.%s is not a collection", f.Shape, f.Name)
		return call
	}
	return s.flatten(call, f, typ)
}

// flatten switches the query to the element collection of f and returns a
// source placeholder of the element shape.
func (s *translation) flatten(call *expr.Call, f *expr.Field, typ schema.ValueType) expr.Expr {
	if s.paged() {
		s.fallback("%s flattens after skip/take", call.Method)
		return call
	}
	if !s.pin(call.Method, f) {
		return call
	}
	s.d.Result = ResultType{Shape: typ.Elem}
	return &expr.Source{Shape: typ.Elem}
}

func (s *translation) visitOrder(call *expr.Call) (expr.Expr, error) {
	if s.paged() {
		s.fallback("%s applied after skip/take", call.Method)
		return call, nil
	}
	f, ok := s.fieldOperand(call)
	if !ok {
		return call, nil
	}
	mapping, ok := s.finder.Column(f)
	if !ok {
		s.fallback("%s: unknown field %s.%s", call.Method, f.Shape, f.Name)
		return call, nil
	}
	switch len(mapping.Columns) {
	case 0:
		s.fallback("%s: field %s.%s has no column", call.Method, f.Shape, f.Name)
		return call, nil
	case 1:
	default:
		return nil, &UnsupportedError{
			Code:    CodeMultiColumnSort,
			Message: fmt.Sprintf("%s key maps to %d columns", call.Method, len(mapping.Columns)),
			Field:   f.Shape.String() + "." + f.Name,
		}
	}
	if !s.pin(call.Method, f) {
		return call, nil
	}

	key := mapping.Columns[0]
	if call.Method == expr.OrderByDescending || call.Method == expr.ThenByDescending {
		key += " DESC"
	}
	// Keys accumulate in application order; the first ordering is primary.
	s.sort = append(s.sort, key)
	return call.Input(), nil
}

func (s *translation) visitPage(call *expr.Call) expr.Expr {
	c, ok := expr.Unwrap(call.Operand(0)).(*expr.Constant)
	if !ok {
		s.fallback("%s count must be a literal", call.Method)
		return call
	}
	n, ok := intValue(c.Value)
	if !ok || n < 0 {
		s.fallback("%s count must be a non-negative integer, got %s", call.Method, expr.FormatValue(c.Value))
		return call
	}

	s.setPage(call.Method, n)

	// Exactly one optional skip followed by one optional take maps to
	// OFFSET/LIMIT. Any other chain keeps last-call values but cannot be
	// pushed down.
	if !plainPaging(s.pages) {
		s.fallback("skip/take chain %v has no single OFFSET/LIMIT form", s.pages)
		return call
	}
	return call.Input()
}

// setPage records a skip or take count; the last call wins.
func (s *translation) setPage(m expr.Method, n int) {
	if m == expr.Skip {
		s.d.Skip = n
	} else {
		s.d.Take = n
	}
	s.pages = append(s.pages, m)
}

// pageCount reads a literal non-negative skip or take count.
func pageCount(call *expr.Call) (int, bool) {
	c, ok := expr.Unwrap(call.Operand(0)).(*expr.Constant)
	if !ok {
		return 0, false
	}
	n, ok := intValue(c.Value)
	return n, ok && n >= 0
}

func plainPaging(pages []expr.Method) bool {
	switch len(pages) {
	case 1:
		return true
	case 2:
		return pages[0] == expr.Skip && pages[1] == expr.Take
	default:
		return false
	}
}

// visitTerminal handles Count and Any: an optional predicate is folded in,
// the flag is set, and the node is stripped.
func (s *translation) visitTerminal(call *expr.Call, mark func()) expr.Expr {
	if call.Operand(0) != nil {
		l, ok := expr.AsLambda(call.Operand(0))
		if !ok || !s.applyPredicate(call.Method, l) {
			s.fallback("%s predicate is not a lambda", call.Method)
			return call
		}
	}
	mark()
	s.consumed = true
	return call.Input()
}

// visitElement handles First and Single. The predicate is folded in and take
// is capped; the node itself stays in Remaining so in-memory evaluation
// supplies the empty and ambiguous cases.
func (s *translation) visitElement(call *expr.Call, take int) expr.Expr {
	if call.Operand(0) != nil {
		l, ok := expr.AsLambda(call.Operand(0))
		if !ok || !s.applyPredicate(call.Method, l) {
			s.fallback("%s predicate is not a lambda", call.Method)
			return call
		}
	}
	if s.d.Take == Unset || take < s.d.Take {
		s.d.Take = take
	}
	s.consumed = true
	return &expr.Call{Method: call.Method, Args: []expr.Expr{call.Input()}}
}

func intValue(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	default:
		return 0, false
	}
}
