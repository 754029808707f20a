package evaluator

import (
	"math"

	"github.com/cockroachdb/apd/v3"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/value"
)

func evalUnary(n *ast.UnaryOp, sc *scope.Scope, c *Context) (value.Value, error) {
	operand, err := eval(n.Operand, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	return UnaryOp(n.Op, operand)
}

// UnaryOp implements prefix +, -, and not; exported so the bytecode VM can
// share this implementation.
func UnaryOp(op string, operand value.Value) (value.Value, error) {
	if operand.IsEmpty() {
		return value.Empty, nil
	}
	v, ok := operand.Singleton()
	if !ok {
		return value.Value{}, &TypeError{Message: "unary operator requires a singleton operand"}
	}
	switch op {
	case "+":
		if v.Kind != value.KindInteger && v.Kind != value.KindDecimal && v.Kind != value.KindQuantity {
			return value.Value{}, &TypeError{Message: "unary + requires a numeric operand"}
		}
		return v, nil
	case "-":
		switch v.Kind {
		case value.KindInteger:
			if v.Int() == math.MinInt64 {
				return value.Empty, nil
			}
			return value.Int(-v.Int()), nil
		case value.KindDecimal:
			out := new(apd.Decimal)
			out.Neg(v.Decimal())
			return value.Dec(out), nil
		case value.KindQuantity:
			q := v.Quantity()
			out := new(apd.Decimal)
			out.Neg(q.Value)
			return value.QuantityVal(value.Quantity{Value: out, Unit: q.Unit}), nil
		default:
			return value.Value{}, &TypeError{Message: "unary - requires a numeric operand"}
		}
	case "not":
		if v.Kind != value.KindBoolean {
			return value.Empty, nil
		}
		return value.Bool(!v.Bool()), nil
	default:
		return value.Value{}, &TypeError{Message: "unknown unary operator " + op}
	}
}
