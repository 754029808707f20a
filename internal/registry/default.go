package registry

import (
	"fmt"

	"github.com/octofhir/fhirpath-go/internal/value"
)

// CardinalityError is raised by single() (and any other function with a
// documented cardinality precondition) when its input has more elements
// than the function allows. SUPPLEMENTED FEATURES in SPEC_FULL.md §5 calls
// this out by name as a gap the distilled spec left unspecified.
type CardinalityError struct {
	Func string
	Len  int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s(): expected at most one item, got %d", e.Func, e.Len)
}

// ArityError is raised when a function is called with the wrong number of
// arguments, a compile/strict-mode-checkable condition spec.md §7 lists
// under "fatal" errors.
type ArityError struct {
	Func     string
	Got      int
	Min, Max int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s(): wrong number of arguments: got %d, want %d..%d", e.Func, e.Got, e.Min, e.Max)
}

// UnknownFunctionError is raised by evaluation, in strict and non-strict
// mode alike, when no registered function matches the call.
type UnknownFunctionError struct {
	Name string
}

func (e *UnknownFunctionError) Error() string { return fmt.Sprintf("unknown function %q", e.Name) }

// DefaultRegistry is the builtin function set this engine ships so
// spec.md §8's scenarios run end to end. Grounded on the teacher's
// (removed) internal/interp/builtins name->function dispatch-table
// pattern: a map from name to a small struct bundling the signature and
// the Go function implementing it.
type DefaultRegistry struct {
	fns map[string]builtin
}

// builtin bundles both call forms a name can register under. A handful of
// names (exists() most notably) are callable both bare and with a lambda
// argument, so the two forms keep separate signatures rather than sharing
// one: exists() takes 0 args plain but exactly 1 as a lambda, and letting a
// second registerLambda/register call overwrite the other's entry would
// silently drop whichever form registered first.
type builtin struct {
	callSig Signature
	lamSig  Signature
	call    func(base value.Value, args Args) (value.Value, error)
	lam     func(base value.Value, item func(value.Value, int) (value.Value, error)) (value.Value, error)
}

// NewDefault builds the default registry with every builtin wired: the
// collection/higher-order functions, string functions, and math functions.
func NewDefault() *DefaultRegistry {
	r := &DefaultRegistry{fns: map[string]builtin{}}
	registerCollectionBuiltins(r)
	registerStringBuiltins(r)
	registerMathBuiltins(r)
	return r
}

func (r *DefaultRegistry) register(name string, sig Signature, call func(value.Value, Args) (value.Value, error)) {
	sig.Name = name
	sig.Supported = true
	b := r.fns[name]
	b.callSig = sig
	b.call = call
	r.fns[name] = b
}

func (r *DefaultRegistry) registerLambda(name string, sig Signature, lam func(value.Value, func(value.Value, int) (value.Value, error)) (value.Value, error)) {
	sig.Name = name
	sig.IsLambda = true
	sig.Supported = true
	b := r.fns[name]
	b.lamSig = sig
	b.lam = lam
	r.fns[name] = b
}

func (r *DefaultRegistry) HasFunction(name string) bool {
	_, ok := r.fns[name]
	return ok
}

func (r *DefaultRegistry) SupportsSync(name string) bool { return r.HasFunction(name) }

// GetSignature reports the plain-call signature when one is registered,
// falling back to the lambda signature for names (where, select, repeat, ...)
// that only exist in lambda form.
func (r *DefaultRegistry) GetSignature(name string) (Signature, bool) {
	b, ok := r.fns[name]
	if !ok {
		return Signature{}, false
	}
	if b.call != nil {
		return b.callSig, true
	}
	return b.lamSig, true
}

func (r *DefaultRegistry) Evaluate(name string, base value.Value, args Args) (value.Value, error) {
	b, ok := r.fns[name]
	if !ok {
		return value.Value{}, &UnknownFunctionError{Name: name}
	}
	if b.call == nil {
		return value.Value{}, fmt.Errorf("registry: %q is a lambda function, call EvaluateLambda", name)
	}
	if len(args) < b.callSig.MinArgs || (b.callSig.MaxArgs >= 0 && len(args) > b.callSig.MaxArgs) {
		return value.Value{}, &ArityError{Func: name, Got: len(args), Min: b.callSig.MinArgs, Max: b.callSig.MaxArgs}
	}
	return b.call(base, args)
}

func (r *DefaultRegistry) EvaluateLambda(name string, base value.Value, item func(value.Value, int) (value.Value, error)) (value.Value, error) {
	b, ok := r.fns[name]
	if !ok {
		return value.Value{}, &UnknownFunctionError{Name: name}
	}
	if b.lam == nil {
		return value.Value{}, fmt.Errorf("registry: %q is not a lambda function", name)
	}
	return b.lam(base, item)
}
