package mapper

import "strings"

// Expr is a derived-column expression of the form "lhs OP rhs", where
// both sides are paths into the record and OP is one of + - * /.
// Typical use is a ratio over two upstream fields ("spend / clicks").
type Expr struct {
	raw      string
	lhs, rhs Path
	op       string
}

// ParseExpr compiles a derived-column expression.
func ParseExpr(s string) (Expr, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return Expr{}, errf("expr %q: want \"path op path\"", s)
	}
	lhs, err := ParsePath(parts[0])
	if err != nil {
		return Expr{}, err
	}
	rhs, err := ParsePath(parts[2])
	if err != nil {
		return Expr{}, err
	}
	switch parts[1] {
	case "+", "-", "*", "/":
	default:
		return Expr{}, errf("expr %q: operator %q unknown: want + - * /", s, parts[1])
	}
	return Expr{raw: s, lhs: lhs, rhs: rhs, op: parts[1]}, nil
}

// Eval computes the expression against one record. A missing or
// non-numeric operand evaluates as 0, and division by zero yields 0,
// so a derived column never fails a row.
func (e Expr) Eval(record any) float64 {
	l := numericAt(e.lhs, record)
	r := numericAt(e.rhs, record)
	switch e.op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	default: // "/"
		if r == 0 {
			return 0
		}
		return l / r
	}
}

// numericAt resolves path in record and coerces the result to float64.
func numericAt(p Path, record any) float64 {
	v, ok := p.Eval(record)
	if !ok {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}
