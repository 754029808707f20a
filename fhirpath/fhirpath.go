// Package fhirpath is the engine's public API: Parse an expression once,
// Compile it against an optimizer/bytecode pipeline, and Eval it against
// any number of resources. Engine construction follows the teacher's
// functional-options idiom (LexerOption/interp.Options), adapted here as
// EngineOption.
package fhirpath

import (
	"io"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/bytecode"
	"github.com/octofhir/fhirpath-go/internal/evaluator"
	"github.com/octofhir/fhirpath-go/internal/modelprovider"
	"github.com/octofhir/fhirpath-go/internal/optimizer"
	"github.com/octofhir/fhirpath-go/internal/parser"
	"github.com/octofhir/fhirpath-go/internal/registry"
	"github.com/octofhir/fhirpath-go/internal/value"
)

// ParseError reports the lex/parse diagnostics recorded while parsing an
// expression. Parsing stops at the first error, so the list describes that
// one failure (possibly recorded twice).
type ParseError struct {
	Expression string
	Errors     []*parser.Error
}

func (e *ParseError) Error() string {
	if len(e.Errors) == 0 {
		return "fhirpath: parse error"
	}
	msg := e.Errors[0].Message
	for _, more := range e.Errors[1:] {
		msg += "; " + more.Message
	}
	return "fhirpath: " + msg
}

// Expression is a parsed, optionally optimized and bytecode-compiled
// FHIRPath expression, ready to Eval against any number of resources. It
// holds no resource-specific state, so the same Expression is safe to
// reuse (and to run concurrently) across Eval calls — spec.md's
// Concurrency & Resource Model calls out exactly this reuse pattern.
type Expression struct {
	source string
	ast    ast.Expression
	chunk  *bytecode.Chunk
	eng    *Engine
}

// Source returns the original expression text.
func (e *Expression) Source() string { return e.source }

// String renders the parsed AST back to FHIRPath syntax (via ast.Node's
// String method), useful for confirming what an optimizer pass rewrote.
func (e *Expression) String() string { return e.ast.String() }

// Engine holds the shared collaborators (registry, model provider,
// optimizer/bytecode configuration) that every Parse/Eval call through it
// uses; analogous to the teacher's Interpreter value built once per
// script run and reused across evaluations.
type Engine struct {
	registry          registry.Registry
	modelProvider     modelprovider.ModelProvider
	optimizerCfg      optimizer.Config
	optimize          bool
	useBytecode       bool
	strictMode        bool
	maxRecursionDepth int
	traceWriter       io.Writer
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithRegistry overrides the default Registry (count/where/select/... and
// the rest of spec.md §6.2's builtins) with a host-supplied one — e.g. a
// registry backed by a FHIR terminology service for memberOf()/subsumes().
func WithRegistry(r registry.Registry) EngineOption {
	return func(e *Engine) { e.registry = r }
}

// WithModelProvider overrides the default resourceType-only classifier
// with a schema-backed one (spec.md §6.1).
func WithModelProvider(mp modelprovider.ModelProvider) EngineOption {
	return func(e *Engine) { e.modelProvider = mp }
}

// WithMaxRecursionDepth overrides the default recursion guard (1000
// frames) evaluation raises evaluator.RecursionError past.
func WithMaxRecursionDepth(n int) EngineOption {
	return func(e *Engine) { e.maxRecursionDepth = n }
}

// WithOptimization toggles a single AST->AST optimizer pass (spec.md
// §4.3); all passes are on by default. Passing WithOptimization with any
// pass also turns the optimizer on as a whole — see WithOptimize to
// disable it entirely.
func WithOptimization(pass optimizer.Pass, on bool) EngineOption {
	return func(e *Engine) {
		e.optimizerCfg = optimizer.New(append(optimizerOptionsFrom(e.optimizerCfg), optimizer.WithPass(pass, on))...)
		e.optimize = true
	}
}

// WithOptimize toggles the optimizer pipeline as a whole; disabling it is
// mainly useful for tests asserting against the raw parsed AST shape.
func WithOptimize(on bool) EngineOption {
	return func(e *Engine) { e.optimize = on }
}

// WithBytecode selects the compiled bytecode VM (internal/bytecode) as
// the execution path instead of the default tree-walking evaluator.
// internal/evaluator remains the always-correct reference the VM's output
// is checked against in tests; this option exists for hosts that
// re-evaluate the same expression over many resources and want the
// compiled path's lower per-call overhead.
func WithBytecode(on bool) EngineOption {
	return func(e *Engine) { e.useBytecode = on }
}

// WithStrictMode makes unknown properties a hard error instead of folding
// to Empty (spec.md §7). Unknown function names are an error in every mode.
func WithStrictMode(on bool) EngineOption {
	return func(e *Engine) { e.strictMode = on }
}

// WithTraceWriter directs trace()'s output (spec.md §4.5) to w; nil (the
// default) makes trace() a no-op passthrough.
func WithTraceWriter(w io.Writer) EngineOption {
	return func(e *Engine) { e.traceWriter = w }
}

func optimizerOptionsFrom(cfg optimizer.Config) []optimizer.Option {
	opts := make([]optimizer.Option, 0, 4)
	for _, p := range []optimizer.Pass{
		optimizer.ConstantFold, optimizer.StrengthReduction,
		optimizer.DeadCodeElimination, optimizer.TrivialInlining,
	} {
		opts = append(opts, optimizer.WithPass(p, cfg.Enabled(p)))
	}
	return opts
}

// New builds an Engine with the given options applied over the defaults:
// DefaultRegistry, resourceType-only DefaultProvider, every optimizer
// pass enabled, tree-walking evaluation, non-strict mode, no tracing.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		registry:          registry.NewDefault(),
		modelProvider:     modelprovider.NewDefault(),
		optimizerCfg:      optimizer.DefaultConfig(),
		optimize:          true,
		maxRecursionDepth: 1000,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parse tokenizes, parses, and (unless disabled) optimizes expr, then (if
// WithBytecode is set) compiles it to a Chunk. The returned Expression is
// reusable across any number of Eval calls.
func (e *Engine) Parse(expr string) (*Expression, error) {
	node, errs := parser.ParseExpression(expr)
	if len(errs) > 0 {
		return nil, &ParseError{Expression: expr, Errors: errs}
	}

	if e.optimize {
		node = optimizer.Optimize(node, e.optimizerCfg, e.isPureFunction)
	}

	out := &Expression{source: expr, ast: node, eng: e}
	if e.useBytecode {
		chunk, err := bytecode.Compile(node, e.knownFunction)
		if err != nil {
			return nil, err
		}
		out.chunk = chunk
	}
	return out, nil
}

// isPureFunction is the optimizer's oracle (spec.md §4.3): a function the
// optimizer may fold/eliminate/inline around only if it has no
// observable side effect (trace() writes to the host's TraceWriter,
// now()/today()/timeOfDay() are non-deterministic — neither is safe to
// fold away).
func (e *Engine) isPureFunction(name string) bool {
	switch name {
	case "trace", "now", "today", "timeOfDay":
		return false
	}
	sig, ok := e.registry.GetSignature(name)
	if !ok {
		return true
	}
	return sig.Pure
}

func (e *Engine) knownFunction(name string) bool {
	switch name {
	case "ofType", "is", "as", "defineVariable", "trace", "today", "now", "timeOfDay", "iif":
		return true
	}
	return e.registry.HasFunction(name)
}

// Eval evaluates expr against root, the top-level %resource/%context
// value (spec.md §3's "a single root input value"). ctxOverride, if
// non-nil, supplies a distinct %context value (SPEC_FULL.md §5's explicit
// %resource vs %context rule); pass nil to let %context default to root.
func (e *Engine) Eval(expr *Expression, root value.Value, ctxOverride *value.Value) (value.Value, error) {
	ctx := evaluator.NewContext(root,
		evaluator.WithRegistry(e.registry),
		evaluator.WithModelProvider(e.modelProvider),
		evaluator.WithMaxRecursionDepth(e.maxRecursionDepth),
		evaluator.WithStrictMode(e.strictMode),
		evaluator.WithTraceWriter(e.traceWriter),
	)
	ctx.ContextOverride = ctxOverride

	if e.useBytecode && expr.chunk != nil {
		return bytecode.Run(expr.chunk, ctx)
	}
	return evaluator.Evaluate(expr.ast, ctx)
}

// Eval is the one-shot convenience form of New().Parse(expr).Eval(root,
// nil): parse expr fresh and evaluate it once against root using an
// Engine built from opts. Prefer Engine.Parse + Expression.Eval when the
// same expression runs against many resources, since that path parses
// (and optionally compiles) only once.
func Eval(expr string, root value.Value, opts ...EngineOption) (value.Value, error) {
	e := New(opts...)
	parsed, err := e.Parse(expr)
	if err != nil {
		return value.Value{}, err
	}
	return e.Eval(parsed, root, nil)
}
