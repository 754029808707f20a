package ast

import "github.com/octofhir/fhirpath-go/internal/token"

// Identifier is a bare path segment, either the root of a path expression
// (e.g. `Patient` in `Patient.name`) or a backtick-quoted identifier used
// to escape a keyword-shaped property name.
type Identifier struct {
	BaseNode
	Name string
}

func (*Identifier) expressionNode() {}
func (i *Identifier) String() string { return i.Name }

// Variable is one of the special bound variables: $this, $index, $total.
type Variable struct {
	BaseNode
	Kind token.Type // token.THIS, token.INDEX, or token.TOTAL
}

func (*Variable) expressionNode() {}
func (v *Variable) String() string { return v.Kind.String() }

// EnvVariable is a %-prefixed external constant reference: %resource,
// %context, %rootResource, %ucum, or a user-supplied %name.
type EnvVariable struct {
	BaseNode
	Name string
}

func (*EnvVariable) expressionNode() {}
func (e *EnvVariable) String() string { return "%" + e.Name }

// Path is member-access navigation: Base.Name. A bare root identifier is
// represented as an Identifier, not a Path with a nil Base; Path always has
// a non-nil Base.
type Path struct {
	BaseNode
	Base Expression
	Name string
}

func (*Path) expressionNode() {}
func (p *Path) String() string { return p.Base.String() + "." + p.Name }

// Index is indexed navigation: Base[Idx].
type Index struct {
	BaseNode
	Base Expression
	Idx  Expression
}

func (*Index) expressionNode() {}
func (ix *Index) String() string { return ix.Base.String() + "[" + ix.Idx.String() + "]" }
