package evaluator

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/value"
)

func evalDispatch(n ast.Expression, sc *scope.Scope, c *Context) (value.Value, error) {
	switch expr := n.(type) {
	case *ast.EmptyLiteral:
		return value.Empty, nil
	case *ast.BoolLiteral:
		return value.Bool(expr.Value), nil
	case *ast.IntLiteral:
		return evalIntLiteral(expr)
	case *ast.DecimalLiteral:
		return value.DecFromString(expr.Raw)
	case *ast.StringLiteral:
		return value.Str(expr.Value), nil
	case *ast.TemporalLiteral:
		return evalTemporalLiteral(expr)
	case *ast.QuantityLiteral:
		return evalQuantityLiteral(expr)
	case *ast.Identifier:
		return evalIdentifier(expr, sc, c)
	case *ast.Variable:
		return evalVariable(expr, sc)
	case *ast.EnvVariable:
		return evalEnvVariable(expr, sc, c)
	case *ast.Path:
		return evalPath(expr, sc, c)
	case *ast.Index:
		return evalIndex(expr, sc, c)
	case *ast.UnaryOp:
		return evalUnary(expr, sc, c)
	case *ast.BinaryOp:
		return evalBinary(expr, sc, c)
	case *ast.TypeCheck:
		return evalTypeCheck(expr, sc, c)
	case *ast.TypeCast:
		return evalTypeCast(expr, sc, c)
	case *ast.FunctionCall:
		return evalFunctionCall(expr, sc, c)
	case *ast.MethodCall:
		return evalMethodCall(expr, sc, c)
	case *ast.Lambda:
		// A bare Lambda only reaches eval() if it appears outside a
		// higher-order call's argument position (e.g. a malformed
		// expression); evaluate its body against the current scope as a
		// best-effort fallback rather than erroring, since the grammar
		// already restricts where Lambda nodes can appear.
		return eval(expr.Body, sc, c)
	default:
		return value.Value{}, fmt.Errorf("evaluator: unsupported node %T", n)
	}
}

func evalVariable(n *ast.Variable, sc *scope.Scope) (value.Value, error) {
	switch n.Kind.String() {
	case "$this":
		v, _ := sc.This()
		return v, nil
	case "$index":
		i, ok := sc.Index()
		if !ok {
			return value.Empty, nil
		}
		return value.Int(int64(i)), nil
	case "$total":
		v, _ := sc.Total()
		return v, nil
	default:
		return value.Empty, nil
	}
}

// evalIntLiteral parses an integer literal's source text, folding to Empty
// on overflow rather than wrapping or erroring, the rule the arithmetic
// operators also follow (see integerArithmetic in operators.go).
func evalIntLiteral(n *ast.IntLiteral) (value.Value, error) {
	v, err := strconv.ParseInt(n.Raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return value.Empty, nil
		}
		return value.Value{}, fmt.Errorf("malformed integer literal %q", n.Raw)
	}
	return value.Int(v), nil
}

func evalTemporalLiteral(n *ast.TemporalLiteral) (value.Value, error) {
	t, prec, hasTZ, err := value.ParseTemporalText(n.Raw)
	if err != nil {
		return value.Value{}, err
	}
	tv := value.Temporal{Time: t, Precision: prec, HasTZ: hasTZ}
	switch n.Kind {
	case ast.TemporalDate:
		return value.DateVal(tv), nil
	case ast.TemporalDateTime:
		return value.DateTimeVal(tv), nil
	default:
		return value.TimeVal(tv), nil
	}
}

func evalQuantityLiteral(n *ast.QuantityLiteral) (value.Value, error) {
	dv, err := value.DecFromString(n.ValueRaw)
	if err != nil {
		return value.Value{}, err
	}
	unit := n.Unit
	if !n.UnitQuoted {
		unit = value.NormalizeUnit(unit)
	}
	return value.QuantityVal(value.Quantity{Value: dv.Decimal(), Unit: unit}), nil
}
