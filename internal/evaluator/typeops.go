package evaluator

import (
	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/modelprovider"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/value"
)

// typeInfoOf classifies v using the runtime Kind for primitives and the
// ModelProvider for Resource nodes, spec.md §6.1's split of
// responsibility between the engine's own type tags and schema-backed
// reflection.
func typeInfoOf(v value.Value) value.TypeInfo {
	if v.Kind == value.KindResource {
		return modelprovider.ClassifyResource(v.Resource())
	}
	return value.TypeOf(v)
}

func matchesType(v value.Value, spec *ast.TypeSpecifier, mp modelprovider.ModelProvider) bool {
	ti := typeInfoOf(v)
	if ti.Name == spec.Name {
		return true
	}
	if mp != nil && mp.IsSubtypeOf(ti.Name, spec.Name) {
		return true
	}
	return false
}

func evalTypeCheck(n *ast.TypeCheck, sc *scope.Scope, c *Context) (value.Value, error) {
	v, err := eval(n.Expr, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsEmpty() {
		return value.Empty, nil
	}
	item, ok := v.Singleton()
	if !ok {
		return value.Value{}, &TypeError{Message: "is operator requires a singleton operand"}
	}
	return value.Bool(matchesType(item, n.Type, c.ModelProvider)), nil
}

func evalTypeCast(n *ast.TypeCast, sc *scope.Scope, c *Context) (value.Value, error) {
	v, err := eval(n.Expr, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	if v.IsEmpty() {
		return value.Empty, nil
	}
	item, ok := v.Singleton()
	if !ok {
		return value.Value{}, &TypeError{Message: "as operator requires a singleton operand"}
	}
	if !matchesType(item, n.Type, c.ModelProvider) {
		return value.Empty, nil
	}
	return item, nil
}

// MatchesTypeName is matchesType exported for internal/bytecode's VM,
// which only ever has a bare type name string (from OpTypeCheck/
// OpTypeCast's string-pool operand) rather than a parsed TypeSpecifier.
func MatchesTypeName(v value.Value, typeName string, mp modelprovider.ModelProvider) bool {
	return matchesType(v, &ast.TypeSpecifier{Name: typeName}, mp)
}

// OfType is evalOfType exported for internal/bytecode's VM.
func OfType(base value.Value, typeName string, c *Context) value.Value {
	return evalOfType(base, typeName, c)
}

// evalOfType implements the ofType(Type) method: unlike a regular method
// call its argument names a type rather than an expression to evaluate,
// so it is special-cased ahead of the registry dispatch in calls.go,
// exactly like is/as above.
func evalOfType(base value.Value, typeName string, c *Context) value.Value {
	var out []value.Value
	for _, it := range base.Items() {
		ti := typeInfoOf(it)
		if ti.Name == typeName || (c.ModelProvider != nil && c.ModelProvider.IsSubtypeOf(ti.Name, typeName)) {
			out = append(out, it)
		}
	}
	return value.Coll(out)
}
