package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/contactq/internal/schema"
)

// Format renders e in the textual query syntax, e.g.
//
//	contacts.where(c => (c.FirstName == "Ann")).take(5)
//
// Output is deterministic and suitable for logs and golden files.
func Format(e Expr) string {
	var b strings.Builder
	format(&b, e)
	return b.String()
}

func format(b *strings.Builder, e Expr) {
	switch n := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Source:
		if n.Shape == schema.ShapeContact {
			b.WriteString("contacts")
		} else {
			fmt.Fprintf(b, "from(%s)", n.Shape)
		}
	case *Constant:
		b.WriteString(FormatValue(n.Value))
	case *Param:
		b.WriteString(n.Name)
	case *Field:
		format(b, n.Object)
		b.WriteByte('.')
		b.WriteString(n.Name)
	case *Lambda:
		b.WriteString(n.Param.Name)
		b.WriteString(" => ")
		format(b, n.Body)
	case *Binary:
		b.WriteByte('(')
		format(b, n.Left)
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		b.WriteByte(' ')
		format(b, n.Right)
		b.WriteByte(')')
	case *Unary:
		if n.Op == OpNot {
			b.WriteByte('!')
		}
		format(b, n.Operand)
	case *Call:
		format(b, n.Input())
		b.WriteByte('.')
		b.WriteString(lowerFirst(string(n.Method)))
		b.WriteByte('(')
		for i, a := range n.Args[min(1, len(n.Args)):] {
			if i > 0 {
				b.WriteString(", ")
			}
			format(b, a)
		}
		b.WriteByte(')')
	}
}

// FormatValue renders a constant value as a literal.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
