// Package scope implements the copy-on-write variable scope chain FHIRPath
// lambda evaluation needs (spec.md §3.5): $this/$index/$total and
// user-defined (defineVariable) bindings, cheap to create for every
// collection element a lambda iterates over.
package scope

import (
	"fmt"

	"github.com/octofhir/fhirpath-go/internal/value"
)

// DuplicateVariableError is raised by Define when a name is bound a second
// time within the same frame (the same *Scope instance defineVariable()
// mutates in place, not the shared ancestor chain a frame was forked from).
// A fresh frame created for a new where()/select() iteration element, or for
// a nested explicit lambda, is a different instance and may rebind freely.
type DuplicateVariableError struct {
	Name string
}

func (e *DuplicateVariableError) Error() string {
	return fmt.Sprintf("variable %q is already defined in this scope", e.Name)
}

// Scope is one frame of the variable binding chain. A child Scope shares
// its parent's underlying map by reference until the first local Define
// call, at which point it copies the map once (copy-on-write) so sibling
// scopes (e.g. two different elements of the same `where` iteration) never
// observe each other's writes.
//
// This generalizes the teacher's interp/runtime.Environment, which always
// allocates a fresh map per call frame; FHIRPath lambda scopes are
// overwhelmingly read-only (a `where` clause with no defineVariable), so
// paying for a map allocation per element would be wasteful at the scale
// spec.md's Concurrency & Resource Model section calls out.
type Scope struct {
	parent *Scope
	vars   map[string]value.Value
	owned  bool // true once vars has been copied for this frame's own use

	this  value.Value
	index int
	total value.Value

	hasThis  bool
	hasIndex bool
	hasTotal bool

	// definedLocal tracks names bound by a Define call on this exact
	// instance, independent of owned/vars CoW state: it exists purely to
	// catch a second defineVariable() of the same name within one frame. It
	// is never copied to or inherited from parent/child scopes, so a new
	// frame (Child/WithThis/...) always starts able to (re)bind any name.
	definedLocal map[string]bool
}

// Root creates the outermost scope, with no parent and no bound variables.
func Root() *Scope {
	return &Scope{vars: map[string]value.Value{}, owned: true}
}

// Child creates a new scope sharing this scope's variable map by
// reference. The child's $this/$index/$total are unset until WithThis/
// WithIndex/WithTotal are applied.
func (s *Scope) Child() *Scope {
	return &Scope{parent: s, vars: s.vars, owned: false}
}

// WithThis returns a child scope with $this bound to v. It does not bind
// $index or $total.
func (s *Scope) WithThis(v value.Value) *Scope {
	c := s.Child()
	c.this, c.hasThis = v, true
	return c
}

// WithIndex returns a child scope with $index bound to i.
func (s *Scope) WithIndex(i int) *Scope {
	c := s.Child()
	c.index, c.hasIndex = i, true
	return c
}

// WithTotal returns a child scope with $total bound to v, used by
// aggregate().
func (s *Scope) WithTotal(v value.Value) *Scope {
	c := s.Child()
	c.total, c.hasTotal = v, true
	return c
}

// This resolves $this by walking up the chain to the nearest frame that
// bound it.
func (s *Scope) This() (value.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.hasThis {
			return sc.this, true
		}
	}
	return value.Value{}, false
}

// Index resolves $index.
func (s *Scope) Index() (int, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.hasIndex {
			return sc.index, true
		}
	}
	return 0, false
}

// Total resolves $total.
func (s *Scope) Total() (value.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.hasTotal {
			return sc.total, true
		}
	}
	return value.Value{}, false
}

// Define binds name to v in this frame, performing the copy-on-write split
// the first time this frame is written to. It reports DuplicateVariableError
// if name was already bound by an earlier Define call on this same frame.
func (s *Scope) Define(name string, v value.Value) error {
	if s.definedLocal[name] {
		return &DuplicateVariableError{Name: name}
	}
	if !s.owned {
		fresh := make(map[string]value.Value, len(s.vars)+1)
		for k, val := range s.vars {
			fresh[k] = val
		}
		s.vars = fresh
		s.owned = true
	}
	s.vars[name] = v
	if s.definedLocal == nil {
		s.definedLocal = map[string]bool{}
	}
	s.definedLocal[name] = true
	return nil
}

// Get resolves a user-defined variable. Since child scopes share the
// parent's map by reference until written, a lookup only ever needs to
// check the current frame's map (which already "contains" every ancestor
// binding via sharing) plus walk ancestors solely to find one that has
// performed its own CoW split and shadowed a name.
func (s *Scope) Get(name string) (value.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
		if sc.owned {
			// This frame forked its own map; an unset name here must be
			// looked up in the pre-fork ancestor chain, not silently
			// treated as undefined, since definitions made before the
			// fork are still in scope.
			continue
		}
	}
	return value.Value{}, false
}
