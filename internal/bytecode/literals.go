package bytecode

import (
	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/value"
)

// compileTemporalConstant decodes an @-literal's raw text into a Temporal
// Value at compile time; temporal literals are constant by construction
// (their text is fixed at parse time), so there is no reason to defer the
// decode to the VM. The grammar itself lives in internal/value, shared with
// the tree-walking evaluator's literal-node evaluation.
func compileTemporalConstant(n *ast.TemporalLiteral) (value.Value, error) {
	t, prec, hasTZ, err := value.ParseTemporalText(n.Raw)
	if err != nil {
		return value.Value{}, &CompileError{Message: err.Error()}
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

// compileQuantityConstant decodes a QuantityLiteral into a Quantity Value.
func compileQuantityConstant(n *ast.QuantityLiteral) (value.Value, error) {
	dv, err := value.DecFromString(n.ValueRaw)
	if err != nil {
		return value.Value{}, &CompileError{Message: err.Error()}
	}
	unit := n.Unit
	if !n.UnitQuoted {
		unit = value.NormalizeUnit(unit)
	}
	return value.QuantityVal(value.Quantity{Value: dv.Decimal(), Unit: unit}), nil
}
