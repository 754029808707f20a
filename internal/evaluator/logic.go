package evaluator

import (
	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/value"
)

// LogicAnd/LogicOr/LogicXor/LogicImplies apply the same three-valued
// truth tables as evalAnd/evalOr/evalXorImplies but over two already
// -evaluated operands; internal/bytecode's VM calls these since by the
// time OpBinary executes both stack operands have already been computed
// (the compiled chunk has no lazy/short-circuit control flow for boolean
// operators), trading the tree-walker's short-circuit evaluation for a
// simpler compiled form. This only changes behavior for operands whose
// evaluation would otherwise be skipped and would raise a hard error,
// recurse unboundedly or write trace() output; ordinary Empty-folding
// operands are unaffected.
func LogicAnd(left, right value.Value) value.Value {
	lb, lok := asBool(left)
	if lok && !lb {
		return value.Bool(false)
	}
	rb, rok := asBool(right)
	if rok && !rb {
		return value.Bool(false)
	}
	if lok && rok {
		return value.Bool(lb && rb)
	}
	return value.Empty
}

func LogicOr(left, right value.Value) value.Value {
	lb, lok := asBool(left)
	if lok && lb {
		return value.Bool(true)
	}
	rb, rok := asBool(right)
	if rok && rb {
		return value.Bool(true)
	}
	if lok && rok {
		return value.Bool(lb || rb)
	}
	return value.Empty
}

func LogicXor(left, right value.Value) value.Value {
	lb, lok := asBool(left)
	rb, rok := asBool(right)
	if !lok || !rok {
		return value.Empty
	}
	return value.Bool(lb != rb)
}

func LogicImplies(left, right value.Value) value.Value {
	lb, lok := asBool(left)
	if lok && !lb {
		return value.Bool(true)
	}
	rb, rok := asBool(right)
	if lok && lb {
		if rok {
			return value.Bool(rb)
		}
		return value.Empty
	}
	return value.Empty
}

// asBool extracts a singleton Boolean, reporting ok=false for anything
// else (including Empty and multi-element collections), which the Kleene
// logic operators below treat as "unknown".
func asBool(v value.Value) (b bool, ok bool) {
	s, singleOK := v.Singleton()
	if !singleOK || s.Kind != value.KindBoolean {
		return false, false
	}
	return s.Bool(), true
}

// AsBool is asBool exported for internal/bytecode's VM (iif's
// condition-testing logic).
func AsBool(v value.Value) (bool, bool) { return asBool(v) }

// evalAnd implements FHIRPath's three-valued `and`: `false and <anything>`
// is always `false` without evaluating further, matching the teacher's
// short-circuit evaluation pattern for its own boolean operators.
func evalAnd(n *ast.BinaryOp, sc *scope.Scope, c *Context) (value.Value, error) {
	left, err := eval(n.Left, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	if lb, ok := asBool(left); ok && !lb {
		return value.Bool(false), nil
	}
	right, err := eval(n.Right, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	rb, rok := asBool(right)
	if rok && !rb {
		return value.Bool(false), nil
	}
	lb, lok := asBool(left)
	if lok && rok {
		return value.Bool(lb && rb), nil
	}
	return value.Empty, nil
}

// evalOr implements `or`: `true or <anything>` is always `true`.
func evalOr(n *ast.BinaryOp, sc *scope.Scope, c *Context) (value.Value, error) {
	left, err := eval(n.Left, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	if lb, ok := asBool(left); ok && lb {
		return value.Bool(true), nil
	}
	right, err := eval(n.Right, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	if rb, ok := asBool(right); ok && rb {
		return value.Bool(true), nil
	}
	lb, lok := asBool(left)
	rb, rok := asBool(right)
	if lok && rok {
		return value.Bool(lb || rb), nil
	}
	return value.Empty, nil
}

// evalXorImplies implements `xor` (isImplies=false) and `implies`
// (isImplies=true). Neither short-circuits as aggressively as and/or:
// `implies` only short-circuits on a known-false antecedent.
func evalXorImplies(n *ast.BinaryOp, sc *scope.Scope, c *Context, isImplies bool) (value.Value, error) {
	left, err := eval(n.Left, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	lb, lok := asBool(left)
	if isImplies && lok && !lb {
		return value.Bool(true), nil
	}
	right, err := eval(n.Right, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	rb, rok := asBool(right)
	if isImplies {
		if lok && lb {
			if rok {
				return value.Bool(rb), nil
			}
			return value.Empty, nil
		}
		return value.Empty, nil
	}
	if !lok || !rok {
		return value.Empty, nil
	}
	return value.Bool(lb != rb), nil
}
