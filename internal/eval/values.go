package eval

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/roach88/contactq/internal/expr"
)

// truth interprets a predicate result. Null is false.
func truth(v any) (bool, error) {
	switch v := v.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, errorf(CodeTypeMismatch, "predicate yielded %T, want bool", v)
	}
}

// scalar is a normalized comparison operand.
type scalar struct {
	kind byte // 'b' bool, 'i' int, 'f' float, 's' string
	b    bool
	i    int64
	f    float64
	s    string
}

func normalize(v any) (scalar, bool) {
	switch v := v.(type) {
	case bool:
		return scalar{kind: 'b', b: v}, true
	case int:
		return scalar{kind: 'i', i: int64(v)}, true
	case int8:
		return scalar{kind: 'i', i: int64(v)}, true
	case int16:
		return scalar{kind: 'i', i: int64(v)}, true
	case int32:
		return scalar{kind: 'i', i: int64(v)}, true
	case int64:
		return scalar{kind: 'i', i: v}, true
	case uint8:
		return scalar{kind: 'i', i: int64(v)}, true
	case uint16:
		return scalar{kind: 'i', i: int64(v)}, true
	case uint32:
		return scalar{kind: 'i', i: int64(v)}, true
	case float32:
		return scalar{kind: 'f', f: float64(v)}, true
	case float64:
		return scalar{kind: 'f', f: v}, true
	case string:
		return scalar{kind: 's', s: v}, true
	default:
		return scalar{}, false
	}
}

// text is the form a value takes when bound as a native parameter.
func (s scalar) text() string {
	switch s.kind {
	case 'b':
		if s.b {
			return "1"
		}
		return "0"
	case 'i':
		return strconv.FormatInt(s.i, 10)
	case 'f':
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	default:
		return s.s
	}
}

func (s scalar) number() (float64, bool) {
	switch s.kind {
	case 'b':
		if s.b {
			return 1, true
		}
		return 0, true
	case 'i':
		return float64(s.i), true
	case 'f':
		return s.f, true
	default:
		return 0, false
	}
}

// equal mirrors IS semantics: null equals only null. Mixed string and
// non-string operands compare by their bound text form.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	sa, okA := normalize(a)
	sb, okB := normalize(b)
	if !okA || !okB {
		ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
		return ta == tb && ta.Comparable() && a == b
	}
	c, err := compareScalars(sa, sb)
	return err == nil && c == 0
}

// compare orders two non-null values.
func compare(a, b any) (int, error) {
	sa, okA := normalize(a)
	sb, okB := normalize(b)
	if !okA || !okB {
		return 0, errorf(CodeTypeMismatch, "cannot compare %T with %T", a, b)
	}
	return compareScalars(sa, sb)
}

func compareScalars(a, b scalar) (int, error) {
	if a.kind == 's' && b.kind == 's' {
		return strings.Compare(a.s, b.s), nil
	}
	if a.kind == 's' || b.kind == 's' {
		return strings.Compare(a.text(), b.text()), nil
	}
	if a.kind == 'i' && b.kind == 'i' {
		return cmp.Compare(a.i, b.i), nil
	}
	x, _ := a.number()
	y, _ := b.number()
	return cmp.Compare(x, y), nil
}

// orderCompare is compare with nulls first.
func orderCompare(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	default:
		return compare(a, b)
	}
}

func arith(op expr.BinaryOp, a, b any) (any, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	sa, okA := normalize(a)
	sb, okB := normalize(b)
	if !okA || !okB {
		return nil, errorf(CodeTypeMismatch, "cannot apply %s to %T and %T", op, a, b)
	}

	if op == expr.OpAdd && sa.kind == 's' && sb.kind == 's' {
		return sa.s + sb.s, nil
	}
	if sa.kind == 'i' && sb.kind == 'i' {
		switch op {
		case expr.OpAdd:
			return sa.i + sb.i, nil
		case expr.OpSubtract:
			return sa.i - sb.i, nil
		default:
			return sa.i * sb.i, nil
		}
	}
	if (sa.kind != 'i' && sa.kind != 'f') || (sb.kind != 'i' && sb.kind != 'f') {
		return nil, errorf(CodeTypeMismatch, "cannot apply %s to %s and %s", op, typeName(a), typeName(b))
	}
	x, _ := sa.number()
	y, _ := sb.number()
	switch op {
	case expr.OpAdd:
		return x + y, nil
	case expr.OpSubtract:
		return x - y, nil
	default:
		return x * y, nil
	}
}

func typeName(v any) string { return fmt.Sprintf("%T", v) }
