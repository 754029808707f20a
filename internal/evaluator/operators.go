package evaluator

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/registry"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/value"
)

func evalBinary(n *ast.BinaryOp, sc *scope.Scope, c *Context) (value.Value, error) {
	// and/or/xor/implies get their own short-circuit + three-valued logic
	// ahead of evaluating both sides eagerly.
	switch n.Op {
	case "and":
		return evalAnd(n, sc, c)
	case "or":
		return evalOr(n, sc, c)
	case "xor":
		return evalXorImplies(n, sc, c, false)
	case "implies":
		return evalXorImplies(n, sc, c, true)
	}

	left, err := eval(n.Left, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	right, err := eval(n.Right, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	return BinaryOp(n.Op, left, right)
}

// BinaryOp implements every non-short-circuiting infix operator; it is
// exported so internal/bytecode's VM can call the identical
// implementation instead of re-deriving FHIRPath semantics.
func BinaryOp(op string, left, right value.Value) (value.Value, error) {
	switch op {
	case "|":
		return value.Coll(append(append([]value.Value{}, left.Items()...), right.Items()...)), nil
	case "=":
		return threeValuedEqual(left, right, false)
	case "!=":
		v, err := threeValuedEqual(left, right, false)
		if err != nil || v.IsEmpty() {
			return v, err
		}
		return value.Bool(!v.Bool()), nil
	case "~":
		return threeValuedEqual(left, right, true)
	case "!~":
		v, err := threeValuedEqual(left, right, true)
		if err != nil || v.IsEmpty() {
			return v, err
		}
		return value.Bool(!v.Bool()), nil
	case "<", "<=", ">", ">=":
		return compareOp(op, left, right)
	case "in":
		return membership(left, right)
	case "contains":
		return membership(right, left)
	case "+", "-", "*", "/", "div", "mod":
		return arithmetic(op, left, right)
	case "&":
		return concat(left, right)
	}
	return value.Value{}, &TypeError{Message: "unknown operator " + op}
}

// threeValuedEqual implements spec.md's empty-propagation rule for `=`/
// `~`: Empty if either side is empty, otherwise the structural
// (equivalence, when equiv is true, ignoring case/whitespace for strings)
// comparison.
func threeValuedEqual(left, right value.Value, equiv bool) (value.Value, error) {
	if left.IsEmpty() || right.IsEmpty() {
		return value.Empty, nil
	}
	litems, ritems := left.Items(), right.Items()
	if len(litems) != len(ritems) {
		return value.Bool(false), nil
	}
	for i := range litems {
		if equiv {
			if !equivalent(litems[i], ritems[i]) {
				return value.Bool(false), nil
			}
			continue
		}
		if !value.Equal(litems[i], ritems[i]) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func equivalent(a, b value.Value) bool {
	if a.Kind == value.KindString && b.Kind == value.KindString {
		return registry.CompareStrings(normalizeForEquivalence(a.Str()), normalizeForEquivalence(b.Str())) == 0
	}
	return value.Equal(a, b)
}

func normalizeForEquivalence(s string) string {
	out := make([]rune, 0, len(s))
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace && len(out) > 0 {
				out = append(out, ' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		out = append(out, r)
	}
	for len(out) > 0 && out[len(out)-1] == ' ' {
		out = out[:len(out)-1]
	}
	return toLower(string(out))
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func compareOp(op string, left, right value.Value) (value.Value, error) {
	if left.IsEmpty() || right.IsEmpty() {
		return value.Empty, nil
	}
	l, lok := left.Singleton()
	r, rok := right.Singleton()
	if !lok || !rok {
		return value.Value{}, &TypeError{Message: "comparison operators require singleton operands"}
	}
	cmp, ok := value.Compare(l, r)
	if !ok {
		return value.Empty, nil
	}
	switch op {
	case "<":
		return value.Bool(cmp < 0), nil
	case "<=":
		return value.Bool(cmp <= 0), nil
	case ">":
		return value.Bool(cmp > 0), nil
	default:
		return value.Bool(cmp >= 0), nil
	}
}

func membership(item, coll value.Value) (value.Value, error) {
	if item.IsEmpty() {
		return value.Empty, nil
	}
	el, ok := item.Singleton()
	if !ok {
		return value.Value{}, &TypeError{Message: "in/contains left operand must be a singleton"}
	}
	for _, it := range coll.Items() {
		if value.Equal(el, it) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

// arithmetic implements +, -, *, /, div, mod across Integer/Decimal/
// Quantity operands (and String + String concatenation), folding overflow and div-by-zero to Empty
// per spec.md §7 rather than raising a hard error.
func arithmetic(op string, left, right value.Value) (value.Value, error) {
	if left.IsEmpty() || right.IsEmpty() {
		return value.Empty, nil
	}
	l, lok := left.Singleton()
	r, rok := right.Singleton()
	if !lok || !rok {
		return value.Value{}, &TypeError{Message: "arithmetic requires singleton operands"}
	}

	if l.Kind == value.KindString && r.Kind == value.KindString && op == "+" {
		return value.Str(l.Str() + r.Str()), nil
	}
	if isTemporal(l.Kind) && r.Kind == value.KindQuantity {
		return temporalQuantityArithmetic(op, l, r)
	}
	if isTemporal(r.Kind) && l.Kind == value.KindQuantity && op == "+" {
		return temporalQuantityArithmetic(op, r, l)
	}
	if l.Kind == value.KindQuantity || r.Kind == value.KindQuantity {
		return quantityArithmetic(op, l, r)
	}
	if l.Kind == value.KindInteger && r.Kind == value.KindInteger && op != "/" {
		return integerArithmetic(op, l.Int(), r.Int())
	}

	ld, rd := value.DecimalOf(l), value.DecimalOf(r)
	if ld == nil || rd == nil {
		return value.Value{}, &TypeError{Message: "arithmetic requires numeric operands"}
	}
	return decimalArithmetic(op, ld, rd)
}

func integerArithmetic(op string, l, r int64) (value.Value, error) {
	switch op {
	case "+":
		sum := l + r
		if (r > 0 && sum < l) || (r < 0 && sum > l) {
			return value.Empty, nil
		}
		return value.Int(sum), nil
	case "-":
		diff := l - r
		if (r < 0 && diff < l) || (r > 0 && diff > l) {
			return value.Empty, nil
		}
		return value.Int(diff), nil
	case "*":
		if l == 0 || r == 0 {
			return value.Int(0), nil
		}
		prod := l * r
		if prod/r != l || (l == math.MinInt64 && r == -1) {
			return value.Empty, nil
		}
		return value.Int(prod), nil
	case "div":
		if r == 0 || (l == math.MinInt64 && r == -1) {
			return value.Empty, nil
		}
		return value.Int(l / r), nil
	case "mod":
		if r == 0 || (l == math.MinInt64 && r == -1) {
			return value.Empty, nil
		}
		return value.Int(l % r), nil
	}
	return value.Value{}, &TypeError{Message: "unsupported integer operator " + op}
}

func decimalArithmetic(op string, l, r *apd.Decimal) (value.Value, error) {
	out := new(apd.Decimal)
	ctx := value.DecimalContext
	var cond apd.Condition
	var err error
	switch op {
	case "+":
		cond, err = ctx.Add(out, l, r)
	case "-":
		cond, err = ctx.Sub(out, l, r)
	case "*":
		cond, err = ctx.Mul(out, l, r)
	case "/":
		if r.IsZero() {
			return value.Empty, nil
		}
		cond, err = ctx.Quo(out, l, r)
	case "div":
		if r.IsZero() {
			return value.Empty, nil
		}
		cond, err = ctx.QuoInteger(out, l, r)
	case "mod":
		if r.IsZero() {
			return value.Empty, nil
		}
		cond, err = ctx.Rem(out, l, r)
	default:
		return value.Value{}, &TypeError{Message: "unsupported decimal operator " + op}
	}
	if err != nil || cond.Overflow() || cond.DivisionByZero() {
		return value.Empty, nil
	}
	return value.Dec(out), nil
}

func isTemporal(k value.Kind) bool {
	return k == value.KindDate || k == value.KindDateTime || k == value.KindTime
}

func concat(left, right value.Value) (value.Value, error) {
	toStr := func(v value.Value) string {
		if v.IsEmpty() {
			return ""
		}
		s, ok := v.Singleton()
		if !ok || s.Kind != value.KindString {
			return ""
		}
		return s.Str()
	}
	return value.Str(toStr(left) + toStr(right)), nil
}
