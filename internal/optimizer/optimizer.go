// Package optimizer implements FHIRPath's AST->AST optimization stage
// (spec.md §4.3): constant folding, strength reduction, dead-code
// elimination, and trivial function-call inlining, each independently
// toggleable.
package optimizer

import "github.com/octofhir/fhirpath-go/internal/ast"

// Pass identifies one optimization pass.
type Pass int

const (
	ConstantFold Pass = iota
	StrengthReduction
	DeadCodeElimination
	TrivialInlining
)

// Config controls which passes Optimize runs. The zero Config runs none;
// use DefaultConfig for the normal all-enabled pipeline.
type Config struct {
	enabled map[Pass]bool
}

// DefaultConfig enables every pass, matching the teacher's
// bytecode.optimizeConfig default (all passes on unless explicitly
// disabled via an option).
func DefaultConfig() Config {
	return Config{enabled: map[Pass]bool{
		ConstantFold:         true,
		StrengthReduction:    true,
		DeadCodeElimination:  true,
		TrivialInlining:      true,
	}}
}

// Option configures a Config.
type Option func(*Config)

// WithPass enables or disables a single pass.
func WithPass(p Pass, on bool) Option {
	return func(c *Config) { c.enabled[p] = on }
}

// New builds a Config from DefaultConfig plus opts.
func New(opts ...Option) Config {
	c := DefaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Config) enabledFor(p Pass) bool { return c.enabled[p] }

// Enabled reports whether pass p is on in this Config, exported so a host
// (fhirpath.Engine's WithOptimization) can round-trip an existing Config's
// settings when building a new one with a single pass flipped.
func (c Config) Enabled(p Pass) bool { return c.enabled[p] }

// Optimize rewrites expr according to cfg's enabled passes, returning a
// possibly-new AST. A registry purity oracle is supplied so impure
// function calls (trace(), now(), today(), and any user-registered
// side-effecting function) are never folded or reordered — spec.md §4.3's
// "bypassed for impure subtrees" rule.
func Optimize(expr ast.Expression, cfg Config, isPure func(funcName string) bool) ast.Expression {
	if isPure == nil {
		isPure = func(string) bool { return true }
	}
	o := &optimizerState{cfg: cfg, isPure: isPure}
	return o.visit(expr)
}

type optimizerState struct {
	cfg    Config
	isPure func(string) bool
}

func (o *optimizerState) visit(e ast.Expression) ast.Expression {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.BinaryOp:
		n.Left = o.visit(n.Left)
		n.Right = o.visit(n.Right)
		if o.cfg.enabledFor(ConstantFold) {
			if folded, ok := foldBinary(n); ok {
				return folded
			}
		}
		if o.cfg.enabledFor(StrengthReduction) {
			return strengthReduce(n)
		}
		return n
	case *ast.UnaryOp:
		n.Operand = o.visit(n.Operand)
		if o.cfg.enabledFor(ConstantFold) {
			if folded, ok := foldUnary(n); ok {
				return folded
			}
		}
		return n
	case *ast.Path:
		n.Base = o.visit(n.Base)
		return n
	case *ast.Index:
		n.Base = o.visit(n.Base)
		n.Idx = o.visit(n.Idx)
		return n
	case *ast.TypeCheck:
		n.Expr = o.visit(n.Expr)
		return n
	case *ast.TypeCast:
		n.Expr = o.visit(n.Expr)
		return n
	case *ast.FunctionCall:
		for i, a := range n.Args {
			n.Args[i] = o.visit(a)
		}
		if o.cfg.enabledFor(TrivialInlining) && o.isPure(n.Name) {
			if inlined, ok := inlineTrivial(n.Name, n.Args); ok {
				return inlined
			}
		}
		return n
	case *ast.MethodCall:
		n.Base = o.visit(n.Base)
		for i, a := range n.Args {
			n.Args[i] = o.visit(a)
		}
		if o.cfg.enabledFor(DeadCodeElimination) && o.isPure(n.Name) {
			if reduced, ok := eliminateDead(n); ok {
				return reduced
			}
		}
		return n
	case *ast.Lambda:
		n.Body = o.visit(n.Body)
		return n
	default:
		return e
	}
}
