// Package evaluator implements the tree-walking FHIRPath evaluator
// (spec.md §4.5): path navigation, three-valued equality/logical
// operators, arithmetic, type checks, defineVariable, and lambda
// evaluation over the copy-on-write scope chain. This is the engine's
// default execution path; internal/bytecode's VM is the alternative,
// opt-in compiled path and delegates to the same operator helpers defined
// here to avoid a second copy of FHIRPath's semantics.
package evaluator

import (
	"io"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/errors"
	"github.com/octofhir/fhirpath-go/internal/modelprovider"
	"github.com/octofhir/fhirpath-go/internal/registry"
	"github.com/octofhir/fhirpath-go/internal/scope"
	"github.com/octofhir/fhirpath-go/internal/token"
	"github.com/octofhir/fhirpath-go/internal/value"
)

// Context carries everything evaluation needs beyond the expression
// itself: the function registry, the model provider, the root input (for
// %resource/%context), and engine-wide settings. Grounded on the
// teacher's (removed) interp/evaluator.Config shape (MaxRecursionDepth,
// source tracking), generalized with the registry/model-provider
// collaborators FHIRPath adds.
type Context struct {
	Registry         registry.Registry
	ModelProvider    modelprovider.ModelProvider
	Root             value.Value
	ContextOverride  *value.Value
	TraceWriter      io.Writer
	MaxRecursionDepth int
	StrictMode       bool

	depth int
	stack errors.StackTrace
}

// CallStack returns the function/lambda invocation chain currently being
// evaluated, oldest call first. Each frame is popped when its call returns,
// on error as well, so the chain is empty once Evaluate has returned; a
// RecursionError carries its own copy of the chain at the point it was
// raised.
func (c *Context) CallStack() errors.StackTrace { return c.stack }

func (c *Context) pushFrame(name string, span *token.Position) {
	c.stack = append(c.stack, errors.NewStackFrame(name, span))
}

func (c *Context) popFrame() {
	if len(c.stack) > 0 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// Option configures a Context, mirroring the teacher's functional-options
// idiom used throughout (LexerOption, interp.Options).
type Option func(*Context)

func WithRegistry(r registry.Registry) Option { return func(c *Context) { c.Registry = r } }
func WithModelProvider(mp modelprovider.ModelProvider) Option {
	return func(c *Context) { c.ModelProvider = mp }
}
func WithMaxRecursionDepth(n int) Option { return func(c *Context) { c.MaxRecursionDepth = n } }
func WithStrictMode(on bool) Option      { return func(c *Context) { c.StrictMode = on } }
func WithTraceWriter(w io.Writer) Option { return func(c *Context) { c.TraceWriter = w } }

// NewContext builds an evaluation Context for root, applying opts over the
// defaults (unbounded-ish recursion guard of 1000 frames, non-strict
// unknown-property handling, no tracing).
func NewContext(root value.Value, opts ...Option) *Context {
	c := &Context{
		Registry:          registry.NewDefault(),
		ModelProvider:     modelprovider.NewDefault(),
		Root:              root,
		MaxRecursionDepth: 1000,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// contextValue resolves %context: the override if the host supplied one,
// else the same value as %resource (SPEC_FULL.md §3's explicit rule).
func (c *Context) contextValue() value.Value {
	if c.ContextOverride != nil {
		return *c.ContextOverride
	}
	return c.Root
}

// ContextValue is contextValue exported for internal/bytecode's VM.
func (c *Context) ContextValue() value.Value { return c.contextValue() }

// Evaluate runs expr in a fresh root scope whose $this is the context's
// root value. It is the entry point the
// fhirpath package's Engine.Eval calls once per top-level expression.
func Evaluate(expr ast.Expression, c *Context) (value.Value, error) {
	sc := scope.Root().WithThis(c.Root)
	return eval(expr, sc, c)
}

// eval dispatches on the concrete AST node type. This file only wires the
// switch; each operator family's behavior lives in its own file
// (path.go, operators.go, unary.go, typeops.go, calls.go) matching the
// teacher's one-file-per-expression-kind split in its (removed)
// interp/evaluator/visitor_expressions_*.go.
func eval(n ast.Expression, sc *scope.Scope, c *Context) (value.Value, error) {
	if n == nil {
		return value.Empty, nil
	}
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > c.MaxRecursionDepth {
		return value.Value{}, &RecursionError{Depth: c.depth, Stack: append(errors.StackTrace{}, c.stack...)}
	}
	return evalDispatch(n, sc, c)
}
