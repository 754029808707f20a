package evaluator

import (
	"fmt"
	"time"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/registry"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/value"
)

func evalFunctionCall(n *ast.FunctionCall, sc *scope.Scope, c *Context) (value.Value, error) {
	this, _ := sc.This()
	pos := n.Span().Start
	c.pushFrame(n.Name, &pos)
	defer c.popFrame()
	return callFunction(n.Name, this, n.Args, sc, c)
}

func evalMethodCall(n *ast.MethodCall, sc *scope.Scope, c *Context) (value.Value, error) {
	base, err := eval(n.Base, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	pos := n.Span().Start
	c.pushFrame(n.Name, &pos)
	defer c.popFrame()
	return callFunction(n.Name, base, n.Args, sc, c)
}

// callFunction dispatches a call by name. A handful of names are special
// forms the registry.Registry interface cannot express (they need
// compile-time access to an argument's syntax, not its evaluated value, or
// need to mutate the calling scope) and are handled directly; everything
// else goes through the registry, either as a plain call or, for
// higher-order functions, as a per-element lambda invocation.
func callFunction(name string, base value.Value, args []ast.Expression, sc *scope.Scope, c *Context) (value.Value, error) {
	switch name {
	case "ofType":
		typeName, err := typeArgName(args)
		if err != nil {
			return value.Value{}, err
		}
		return evalOfType(base, typeName, c), nil
	case "is":
		typeName, err := typeArgName(args)
		if err != nil {
			return value.Value{}, err
		}
		item, ok := base.Singleton()
		if !ok {
			return value.Empty, nil
		}
		return value.Bool(matchesType(item, &ast.TypeSpecifier{Name: typeName}, c.ModelProvider)), nil
	case "as":
		typeName, err := typeArgName(args)
		if err != nil {
			return value.Value{}, err
		}
		item, ok := base.Singleton()
		if !ok {
			return value.Empty, nil
		}
		if !matchesType(item, &ast.TypeSpecifier{Name: typeName}, c.ModelProvider) {
			return value.Empty, nil
		}
		return item, nil
	case "defineVariable":
		return evalDefineVariable(base, args, sc, c)
	case "trace":
		return evalTrace(base, args, sc, c)
	case "today":
		t := time.Now()
		return value.DateVal(value.Temporal{Time: t, Precision: value.PrecisionDay, HasTZ: false}), nil
	case "now":
		t := time.Now()
		return value.DateTimeVal(value.Temporal{Time: t, Precision: value.PrecisionMillisecond, HasTZ: true}), nil
	case "timeOfDay":
		t := time.Now()
		return value.TimeVal(value.Temporal{Time: t, Precision: value.PrecisionMillisecond, HasTZ: true}), nil
	case "iif":
		return evalIif(base, args, sc, c)
	}

	if lambdaFunctionNames[name] {
		return callLambdaFunction(name, base, args, sc, c)
	}
	return callPlainFunction(name, base, args, sc, c)
}

// lambdaFunctionNames mirrors internal/bytecode's lambdaFunctions list;
// kept as a separate copy since the tree-walking evaluator has no
// dependency on the bytecode package (and shouldn't: bytecode depends on
// evaluator, not the other way around).
var lambdaFunctionNames = map[string]bool{
	"where": true, "select": true, "all": true, "exists": true,
	"repeat": true, "aggregate": true, "sort": true,
}

func callPlainFunction(name string, base value.Value, args []ast.Expression, sc *scope.Scope, c *Context) (value.Value, error) {
	evaluated := make(registry.Args, len(args))
	for i, a := range args {
		v, err := eval(a, sc, c)
		if err != nil {
			return value.Value{}, err
		}
		evaluated[i] = v
	}
	return c.Registry.Evaluate(name, base, evaluated)
}

func callLambdaFunction(name string, base value.Value, args []ast.Expression, sc *scope.Scope, c *Context) (value.Value, error) {
	if len(args) == 0 {
		return c.Registry.Evaluate(name, base, nil)
	}
	body := args[0]
	return c.Registry.EvaluateLambda(name, base, func(el value.Value, idx int) (value.Value, error) {
		elScope := sc.WithThis(el).WithIndex(idx)
		return eval(body, elScope, c)
	})
}

// typeArgName extracts the type name from a call argument position that
// syntactically names a type (ofType(Patient), is(Patient), as(Patient)):
// the parser has no dedicated type-specifier argument grammar for
// function-call position, so this accepts a bare Identifier or a
// dotted Path (FHIR.Patient) and reads its name directly rather than
// evaluating it as a property navigation.
func typeArgName(args []ast.Expression) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one type-name argument")
	}
	switch a := args[0].(type) {
	case *ast.Identifier:
		return a.Name, nil
	case *ast.Path:
		return a.Name, nil
	default:
		return "", fmt.Errorf("expected a type name argument")
	}
}

func evalDefineVariable(base value.Value, args []ast.Expression, sc *scope.Scope, c *Context) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return value.Value{}, &registry.ArityError{Func: "defineVariable", Got: len(args), Min: 1, Max: 2}
	}
	nameVal, err := eval(args[0], sc, c)
	if err != nil {
		return value.Value{}, err
	}
	bound := base
	if len(args) == 2 {
		bound, err = eval(args[1], sc, c)
		if err != nil {
			return value.Value{}, err
		}
	}
	return DefineVariableValue(base, nameVal, bound, sc)
}

// DefineVariableValue binds nameVal (which must be a singleton String) to
// boundVal in sc and returns base unchanged. Exported so internal/bytecode's
// VM, which has already evaluated defineVariable's arguments onto the
// stack by the time OpCall executes, can share this validation/binding
// step instead of re-deriving it.
func DefineVariableValue(base, nameVal, boundVal value.Value, sc *scope.Scope) (value.Value, error) {
	nv, ok := nameVal.Singleton()
	if !ok || nv.Kind != value.KindString {
		return value.Value{}, &TypeError{Message: "defineVariable: name argument must be a string"}
	}
	// Mutating sc in place (rather than forking a child scope) is
	// deliberate: sc is the same pointer threaded through every sibling
	// node evaluated after this call within the enclosing expression, so
	// the binding becomes visible to %name references later in the same
	// chain without needing an explicit statement-sequencing construct.
	if err := sc.Define(nv.Str(), boundVal); err != nil {
		return value.Value{}, err
	}
	return base, nil
}

func evalTrace(base value.Value, args []ast.Expression, sc *scope.Scope, c *Context) (value.Value, error) {
	if c.TraceWriter == nil || len(args) == 0 {
		return base, nil
	}
	nameVal, err := eval(args[0], sc, c)
	if err != nil {
		return value.Value{}, err
	}
	return TraceValue(base, nameVal, c), nil
}

// TraceValue writes base's item count under labelVal's name to c's
// TraceWriter and returns base unchanged. Exported so internal/bytecode's
// VM, which evaluates trace()'s label argument onto the stack before the
// OpCall executes, can share this formatting step.
func TraceValue(base, labelVal value.Value, c *Context) value.Value {
	if c.TraceWriter == nil {
		return base
	}
	label := "trace"
	if s, ok := labelVal.Singleton(); ok && s.Kind == value.KindString {
		label = s.Str()
	}
	fmt.Fprintf(c.TraceWriter, "%s: %d item(s)\n", label, base.Len())
	return base
}

func evalIif(base value.Value, args []ast.Expression, sc *scope.Scope, c *Context) (value.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return value.Value{}, &registry.ArityError{Func: "iif", Got: len(args), Min: 2, Max: 3}
	}
	condVal, err := eval(args[0], sc, c)
	if err != nil {
		return value.Value{}, err
	}
	cond, ok := asBool(condVal)
	if ok && cond {
		return eval(args[1], sc, c)
	}
	if ok && !cond || condVal.IsEmpty() {
		if len(args) == 3 {
			return eval(args[2], sc, c)
		}
		return value.Empty, nil
	}
	return value.Empty, nil
}
