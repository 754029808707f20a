package evaluator

import (
	"fmt"

	"github.com/octofhir/fhirpath-go/internal/errors"
)

// RecursionError is raised when evaluation nests deeper than
// Context.MaxRecursionDepth, the fatal condition spec.md §7 names
// MaxRecursionDepthExceeded. Stack is the call chain active at the point
// of failure (innermost call last), letting a host report which
// where()/select()/repeat() nesting ran away instead of just a number.
type RecursionError struct {
	Depth int
	Stack errors.StackTrace
}

func (e *RecursionError) Error() string {
	if len(e.Stack) == 0 {
		return fmt.Sprintf("maximum recursion depth exceeded (%d)", e.Depth)
	}
	return fmt.Sprintf("maximum recursion depth exceeded (%d)\n%s", e.Depth, e.Stack.String())
}

// UnknownPropertyError is raised in strict mode when a path segment names
// a property absent from the current node; in non-strict mode the same
// condition instead folds to Empty (spec.md §7).
type UnknownPropertyError struct {
	Name string
}

func (e *UnknownPropertyError) Error() string { return fmt.Sprintf("unknown property %q", e.Name) }

// TypeError is raised for operations applied to operands of an
// incompatible runtime Kind where FHIRPath specifies a hard error rather
// than empty-folding (e.g. arithmetic between String and Boolean).
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return e.Message }
