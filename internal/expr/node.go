package expr

import (
	"strings"

	"github.com/roach88/contactq/internal/schema"
)

// Expr is a node of a query expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode()
}

// Source is the queryable collection a pipeline starts from.
// Shape is the element shape of the collection.
type Source struct {
	Shape schema.Shape
}

// Constant is a literal value. A nil Value is the null literal.
type Constant struct {
	Value any
}

// Param is a lambda parameter bound to one element of Shape.
type Param struct {
	Name  string
	Shape schema.Shape
}

// Field is a member access. Shape is the declaring shape of the member,
// which the table resolver dispatches on.
type Field struct {
	Object Expr
	Shape  schema.Shape
	Name   string
}

// Lambda is a single-parameter function literal.
type Lambda struct {
	Param *Param
	Body  Expr
}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpEqual BinaryOp = iota
	OpNotEqual
	OpGreaterThan
	OpLessThan
	OpGreaterOrEqual
	OpLessOrEqual
	OpAndAlso
	OpOrElse
	OpAdd
	OpSubtract
	OpMultiply
)

var binaryOpText = map[BinaryOp]string{
	OpEqual:          "==",
	OpNotEqual:       "!=",
	OpGreaterThan:    ">",
	OpLessThan:       "<",
	OpGreaterOrEqual: ">=",
	OpLessOrEqual:    "<=",
	OpAndAlso:        "&&",
	OpOrElse:         "||",
	OpAdd:            "+",
	OpSubtract:       "-",
	OpMultiply:       "*",
}

func (op BinaryOp) String() string {
	if s, ok := binaryOpText[op]; ok {
		return s
	}
	return "?"
}

// IsComparison reports whether op compares two values.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		return true
	default:
		return false
	}
}

// Binary is a binary operation.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	// OpNot is logical negation.
	OpNot UnaryOp = iota
	// OpConvert is a value conversion; it carries no query semantics.
	OpConvert
	// OpQuote wraps a lambda passed to an operator.
	OpQuote
)

// Unary is a unary operation.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

// Method names an operator or method call.
type Method string

// Pipeline operators.
const (
	Where             Method = "Where"
	Select            Method = "Select"
	SelectMany        Method = "SelectMany"
	OrderBy           Method = "OrderBy"
	OrderByDescending Method = "OrderByDescending"
	ThenBy            Method = "ThenBy"
	ThenByDescending  Method = "ThenByDescending"
	Skip              Method = "Skip"
	Take              Method = "Take"
	Count             Method = "Count"
	First             Method = "First"
	FirstOrDefault    Method = "FirstOrDefault"
	Single            Method = "Single"
	SingleOrDefault   Method = "SingleOrDefault"
	Any               Method = "Any"
)

// Methods valid only inside lambdas.
const (
	Contains   Method = "Contains"
	StartsWith Method = "StartsWith"
	EndsWith   Method = "EndsWith"
)

var knownMethods = []Method{
	Where, Select, SelectMany,
	OrderBy, OrderByDescending, ThenBy, ThenByDescending,
	Skip, Take, Count, First, FirstOrDefault, Single, SingleOrDefault, Any,
	Contains, StartsWith, EndsWith,
}

// ParseMethod resolves a method name case-insensitively. Unknown names are
// returned unchanged with ok=false; they still build valid Call nodes.
func ParseMethod(name string) (Method, bool) {
	for _, m := range knownMethods {
		if strings.EqualFold(string(m), name) {
			return m, true
		}
	}
	return Method(name), false
}

// Call is an operator or method invocation. Args[0] is the input (the
// receiver); the remaining arguments are operands.
type Call struct {
	Method Method
	Args   []Expr
}

// Input returns the call's first argument, or nil when there is none.
func (c *Call) Input() Expr {
	if len(c.Args) == 0 {
		return nil
	}
	return c.Args[0]
}

// Operand returns argument i+1, or nil when absent.
func (c *Call) Operand(i int) Expr {
	if i+1 >= len(c.Args) {
		return nil
	}
	return c.Args[i+1]
}

// WithInput returns a copy of c whose input is replaced by in.
func (c *Call) WithInput(in Expr) *Call {
	args := make([]Expr, len(c.Args))
	copy(args, c.Args)
	if len(args) == 0 {
		args = []Expr{in}
	} else {
		args[0] = in
	}
	return &Call{Method: c.Method, Args: args}
}

func (*Source) exprNode()   {}
func (*Constant) exprNode() {}
func (*Param) exprNode()    {}
func (*Field) exprNode()    {}
func (*Lambda) exprNode()   {}
func (*Binary) exprNode()   {}
func (*Unary) exprNode()    {}
func (*Call) exprNode()     {}
