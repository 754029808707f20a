// Package ast defines the FHIRPath expression AST: the node interfaces and
// one struct per grammar production (spec.md §3.3, §4.2).
package ast

import "github.com/octofhir/fhirpath-go/internal/token"

// Node is the common interface every AST node satisfies.
type Node interface {
	// Span returns the node's source extent, used for diagnostics only
	// (never for equality or hashing).
	Span() token.Span
	// String renders the node as a FHIRPath-like expression, used by
	// snapshot tests to pin down parser output without a separate pretty
	// printer.
	String() string
}

// Expression is every node that can appear as a value-producing
// subexpression. FHIRPath has no statements; every node is an Expression.
type Expression interface {
	Node
	expressionNode()
}

// BaseNode carries the source span shared by all concrete node types.
type BaseNode struct {
	Sp token.Span
}

// Span implements Node.
func (b BaseNode) Span() token.Span { return b.Sp }
