package bytecode

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/octofhir/fhirpath-go/internal/parser"
)

func compileExpr(t *testing.T, input string) *Chunk {
	t.Helper()
	expr, errs := parser.ParseExpression(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", input, errs)
	}
	chunk, err := Compile(expr, nil)
	if err != nil {
		t.Fatalf("Compile(%q): unexpected error: %v", input, err)
	}
	return chunk
}

// TestCompilerDisassembly pins the opcode shape of a handful of
// representative expressions against stored snapshots, the same way the
// teacher snapshots interpreter output: it catches an accidental change
// to the compiler's lowering strategy without hand-maintaining an
// instruction-by-instruction expectation for every case.
func TestCompilerDisassembly(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"arithmetic", "1 + 2 * 3"},
		{"path_where", "name.where(use = 'official')"},
		{"iif", "iif(true, 'y', 'n')"},
		{"union", "1 | 2 | 3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chunk := compileExpr(t, tc.input)
			snaps.MatchSnapshot(t, tc.name, chunk.Disassemble())
		})
	}
}

func TestCompileEmitsJumpForIif(t *testing.T) {
	chunk := compileExpr(t, "iif(true, 'y', 'n')")
	sawJumpIfFalse := false
	for _, ins := range chunk.Code {
		if ins.Op() == OpJumpIfFalse {
			sawJumpIfFalse = true
		}
	}
	if !sawJumpIfFalse {
		t.Fatalf("expected iif() to compile to a JUMP_IF_FALSE, got:\n%s", chunk.Disassemble())
	}
}

func TestCompileWhereLowersLambdaToNestedChunk(t *testing.T) {
	chunk := compileExpr(t, "name.where(use = 'official')")
	if len(chunk.Lambdas) != 1 {
		t.Fatalf("expected where()'s predicate to compile into one nested lambda chunk, got %d", len(chunk.Lambdas))
	}
}

func TestCompileRejectsUnknownFunctionInStrictMode(t *testing.T) {
	expr, errs := parser.ParseExpression("definitelyNotARealFunction()")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	knownFunction := func(name string) bool { return false }
	_, err := Compile(expr, knownFunction)
	if err == nil {
		t.Fatal("expected a CompileError for an unknown function under strict mode")
	}
	if _, ok := err.(*CompileError); !ok {
		t.Fatalf("expected *CompileError, got %T", err)
	}
}

func TestCompileAcceptsUnknownFunctionWhenOracleIsNil(t *testing.T) {
	expr, errs := parser.ParseExpression("definitelyNotARealFunction()")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	if _, err := Compile(expr, nil); err != nil {
		t.Fatalf("expected compilation to defer unknown-function resolution to runtime, got: %v", err)
	}
}
