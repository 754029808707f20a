package optimizer

import (
	"testing"

	"github.com/octofhir/fhirpath-go/internal/ast"
	"github.com/octofhir/fhirpath-go/internal/parser"
)

func parse(t *testing.T, input string) ast.Expression {
	t.Helper()
	expr, errs := parser.ParseExpression(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", input, errs)
	}
	return expr
}

func alwaysPure(string) bool { return true }

func TestConstantFoldArithmetic(t *testing.T) {
	expr := parse(t, "1 + 2 * 3")
	out := Optimize(expr, DefaultConfig(), alwaysPure)
	if got := out.String(); got != "7" {
		t.Fatalf("expected fully folded %q, got %q", "7", got)
	}
}

func TestConstantFoldBooleanShortCircuit(t *testing.T) {
	expr := parse(t, "false and true")
	out := Optimize(expr, DefaultConfig(), alwaysPure)
	if got := out.String(); got != "false" {
		t.Fatalf("expected %q, got %q", "false", got)
	}
}

func TestStrengthReductionIdentities(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"x + 0", "x"},
		{"0 + x", "x"},
		{"x * 1", "x"},
		{"1 * x", "x"},
		{"x - 0", "x"},
	}
	for _, tt := range tests {
		out := Optimize(parse(t, tt.input), DefaultConfig(), alwaysPure)
		if out.String() != tt.want {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.want, out.String())
		}
	}
}

func TestDeadCodeEliminationWhereTrueFalse(t *testing.T) {
	out := Optimize(parse(t, "name.where(true)"), DefaultConfig(), alwaysPure)
	if out.String() != "name" {
		t.Errorf("expected where(true) eliminated to %q, got %q", "name", out.String())
	}

	out = Optimize(parse(t, "name.where(false)"), DefaultConfig(), alwaysPure)
	if out.String() != "{}" {
		t.Errorf("expected where(false) eliminated to %q, got %q", "{}", out.String())
	}
}

func TestTrivialInliningIif(t *testing.T) {
	out := Optimize(parse(t, "iif(true, 'y', 'n')"), DefaultConfig(), alwaysPure)
	if out.String() != "'y'" {
		t.Errorf("expected inlined then-branch %q, got %q", "'y'", out.String())
	}

	out = Optimize(parse(t, "iif(false, 'y', 'n')"), DefaultConfig(), alwaysPure)
	if out.String() != "'n'" {
		t.Errorf("expected inlined else-branch %q, got %q", "'n'", out.String())
	}
}

func TestImpureFunctionNeverEliminatedOrInlined(t *testing.T) {
	// isPure gates both DeadCodeElimination (eliminateDead) and
	// TrivialInlining (inlineTrivial) on the call's own name; a host that
	// reports a name impure must see that call left untouched, even when
	// its argument shape would otherwise qualify for the rewrite.
	isPure := func(name string) bool { return name != "where" }
	out := Optimize(parse(t, "name.where(true)"), DefaultConfig(), isPure)
	if got := out.String(); got != "name.where(true)" {
		t.Fatalf("expected the impure where() call preserved, got %q", got)
	}

	isPureIif := func(name string) bool { return name != "iif" }
	out = Optimize(parse(t, "iif(true, 'y', 'n')"), DefaultConfig(), isPureIif)
	if got := out.String(); got != "iif(true, 'y', 'n')" {
		t.Fatalf("expected the impure iif() call preserved unrewritten, got %q", got)
	}
}

func TestDisablingAllPassesReturnsASTUnchanged(t *testing.T) {
	expr := parse(t, "1 + 2 * 3")
	cfg := New(WithPass(ConstantFold, false), WithPass(StrengthReduction, false),
		WithPass(DeadCodeElimination, false), WithPass(TrivialInlining, false))
	out := Optimize(expr, cfg, alwaysPure)
	if got := out.String(); got != "(1 + (2 * 3))" {
		t.Fatalf("expected unoptimized shape, got %q", got)
	}
}

func TestOptimizeNeverChangesEvaluationResultForConstantExpressions(t *testing.T) {
	// A lightweight version of spec.md §9's "optimize(e) evaluates the same
	// as e" property, restricted to the literal subset this package folds.
	tests := []string{
		"1 + 2 * 3 - 4",
		"(1 + 1) * (2 - 1)",
		"true and (false or true)",
	}
	for _, input := range tests {
		optimized := Optimize(parse(t, input), DefaultConfig(), alwaysPure)
		if _, ok := optimized.(*ast.IntLiteral); !ok {
			if _, ok := optimized.(*ast.BoolLiteral); !ok {
				t.Errorf("input %q: expected full constant folding to a literal, got %T (%s)", input, optimized, optimized.String())
			}
		}
	}
}
