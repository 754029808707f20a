package evaluator

import (
	"github.com/tidwall/gjson"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/value"
)

func evalIdentifier(n *ast.Identifier, sc *scope.Scope, c *Context) (value.Value, error) {
	this, _ := sc.This()
	if this.Kind == value.KindResource {
		if rt := this.Resource().ResourceType(); rt != "" && rt == n.Name {
			// A bare resource-type name at the root is a type filter, not
			// a property lookup (`Patient.name` starts by matching the
			// input's own resourceType).
			return this, nil
		}
	}
	return navigateProperty(this, n.Name, c)
}

func evalPath(n *ast.Path, sc *scope.Scope, c *Context) (value.Value, error) {
	base, err := eval(n.Base, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	return navigateProperty(base, n.Name, c)
}

// NavigateProperty is navigateProperty exported for internal/bytecode's
// VM, which performs the same gjson-backed property lookup in its OpPath
// handler as the tree-walker's Path/Identifier evaluation.
func NavigateProperty(base value.Value, name string, c *Context) (value.Value, error) {
	return navigateProperty(base, name, c)
}

// navigateProperty implements spec.md §4.5's path-navigation rule:
// navigating into an array-shaped property flattens into the result
// collection, a missing property folds to Empty (or errors in strict
// mode), and navigating a property on a non-object scalar is always Empty
// (never an error, matching FHIRPath's permissive-path semantics).
func navigateProperty(base value.Value, name string, c *Context) (value.Value, error) {
	if base.IsEmpty() {
		return value.Empty, nil
	}
	var out []value.Value
	for _, it := range base.Items() {
		if it.Kind != value.KindResource {
			continue
		}
		res := it.Resource()
		gr := res.Get(name)
		if !gr.Exists() {
			if c.StrictMode {
				return value.Value{}, &UnknownPropertyError{Name: name}
			}
			continue
		}
		out = append(out, jsonToValues(gr)...)
	}
	return value.Coll(out), nil
}

// jsonToValues converts one gjson.Result into the Value(s) it represents:
// an array expands to its elements (flattened into the caller's result,
// per FHIRPath's "properties that are arrays behave as collections"
// rule), an object becomes a nested Resource, and a JSON scalar becomes
// the matching primitive Value. JSON null contributes nothing (FHIRPath
// resources never represent an explicit null as a value).
func jsonToValues(gr gjson.Result) []value.Value {
	if gr.IsArray() {
		var out []value.Value
		gr.ForEach(func(_, v gjson.Result) bool {
			out = append(out, jsonToValues(v)...)
			return true
		})
		return out
	}
	if gr.IsObject() {
		return []value.Value{value.ResourceVal(value.ResourceFromResult(gr))}
	}
	switch gr.Type {
	case gjson.Null:
		return nil
	case gjson.True, gjson.False:
		return []value.Value{value.Bool(gr.Bool())}
	case gjson.Number:
		if !containsDecimalPoint(gr.Raw) {
			if iv, err := value.DecFromString(gr.Raw); err == nil {
				if i, err := iv.Decimal().Int64(); err == nil {
					return []value.Value{value.Int(i)}
				}
			}
		}
		if dv, err := value.DecFromString(gr.Raw); err == nil {
			return []value.Value{dv}
		}
		return []value.Value{value.Int(int64(gr.Num))}
	default:
		return []value.Value{value.Str(gr.String())}
	}
}

func containsDecimalPoint(raw string) bool {
	for _, r := range raw {
		if r == '.' || r == 'e' || r == 'E' {
			return true
		}
	}
	return false
}

func evalIndex(n *ast.Index, sc *scope.Scope, c *Context) (value.Value, error) {
	base, err := eval(n.Base, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	idxVal, err := eval(n.Idx, sc, c)
	if err != nil {
		return value.Value{}, err
	}
	idx, ok := idxVal.Singleton()
	if !ok || idx.Kind != value.KindInteger {
		return value.Empty, nil
	}
	items := base.Items()
	i := int(idx.Int())
	if i < 0 || i >= len(items) {
		return value.Empty, nil
	}
	return items[i], nil
}

// evalEnvVariable resolves %resource/%context/%rootResource/%ucum and
// host-supplied %name constants, the rule SPEC_FULL.md §5 makes explicit.
func evalEnvVariable(n *ast.EnvVariable, sc *scope.Scope, c *Context) (value.Value, error) {
	if v, ok := sc.Get(n.Name); ok {
		return v, nil
	}
	switch n.Name {
	case "resource":
		return c.Root, nil
	case "context":
		return c.contextValue(), nil
	case "rootResource":
		return c.Root, nil
	case "ucum":
		return value.Str("http://unitsofmeasure.org"), nil
	default:
		return value.Empty, nil
	}
}
