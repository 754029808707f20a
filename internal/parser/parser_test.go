package parser

import (
	"testing"

	"github.com/octofhir/fhirpath-go/internal/ast"
)

func checkParserErrors(t *testing.T, errs []*Error) {
	t.Helper()
	if len(errs) == 0 {
		return
	}
	for _, e := range errs {
		t.Errorf("parser error: %s", e.Error())
	}
	t.FailNow()
}

func TestParsePath(t *testing.T) {
	expr, errs := ParseExpression("Patient.name.family")
	checkParserErrors(t, errs)

	got := expr.String()
	want := "Patient.name.family"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 + 2 + 3", "((1 + 2) + 3)"},
		{"true and false or true", "((true and false) or true)"},
		{"a implies b and c", "(a implies (b and c))"},
		{"1 | 2 | 3", "((1 | 2) | 3)"},
		{"1 = 2 and 3 = 4", "((1 = 2) and (3 = 4))"},
		{"1 < 2 = true", "((1 < 2) = true)"},
		{"-1 + 2", "((-1) + 2)"},
		{"not true and false", "((nottrue) and false)"},
	}

	for _, tt := range tests {
		expr, errs := ParseExpression(tt.input)
		checkParserErrors(t, errs)
		if expr.String() != tt.want {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.want, expr.String())
		}
	}
}

func TestParseFunctionCall(t *testing.T) {
	expr, errs := ParseExpression("where(use = 'official')")
	checkParserErrors(t, errs)

	call, ok := expr.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("expected *ast.FunctionCall, got %T", expr)
	}
	if call.Name != "where" {
		t.Errorf("expected name %q, got %q", "where", call.Name)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(call.Args))
	}
}

func TestParseMethodCallChain(t *testing.T) {
	expr, errs := ParseExpression("Patient.name.where(use = 'official').family")
	checkParserErrors(t, errs)

	path, ok := expr.(*ast.Path)
	if !ok {
		t.Fatalf("expected *ast.Path at the top, got %T", expr)
	}
	if path.Name != "family" {
		t.Errorf("expected final segment %q, got %q", "family", path.Name)
	}
	method, ok := path.Base.(*ast.MethodCall)
	if !ok {
		t.Fatalf("expected *ast.MethodCall as path base, got %T", path.Base)
	}
	if method.Name != "where" {
		t.Errorf("expected method name %q, got %q", "where", method.Name)
	}
}

func TestParseImplicitLambdaArgument(t *testing.T) {
	expr, errs := ParseExpression("where($this > 1)")
	checkParserErrors(t, errs)

	call, ok := expr.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("expected *ast.FunctionCall, got %T", expr)
	}
	if _, ok := call.Args[0].(*ast.Lambda); ok {
		t.Fatalf("implicit lambda argument must not produce an *ast.Lambda node")
	}
	if _, ok := call.Args[0].(*ast.BinaryOp); !ok {
		t.Fatalf("expected the bare expression as the argument, got %T", call.Args[0])
	}
}

func TestParseExplicitLambdaArgument(t *testing.T) {
	expr, errs := ParseExpression("repeat(x => x.children)")
	checkParserErrors(t, errs)

	call, ok := expr.(*ast.FunctionCall)
	if !ok {
		t.Fatalf("expected *ast.FunctionCall, got %T", expr)
	}
	lambda, ok := call.Args[0].(*ast.Lambda)
	if !ok {
		t.Fatalf("expected *ast.Lambda, got %T", call.Args[0])
	}
	if len(lambda.Params) != 1 || lambda.Params[0] != "x" {
		t.Fatalf("expected param [x], got %v", lambda.Params)
	}
}

func TestParseIndexing(t *testing.T) {
	expr, errs := ParseExpression("name[0]")
	checkParserErrors(t, errs)

	idx, ok := expr.(*ast.Index)
	if !ok {
		t.Fatalf("expected *ast.Index, got %T", expr)
	}
	if _, ok := idx.Idx.(*ast.IntLiteral); !ok {
		t.Fatalf("expected int literal index, got %T", idx.Idx)
	}
}

func TestParseTypeCheckAndCast(t *testing.T) {
	expr, errs := ParseExpression("value is Quantity")
	checkParserErrors(t, errs)
	tc, ok := expr.(*ast.TypeCheck)
	if !ok {
		t.Fatalf("expected *ast.TypeCheck, got %T", expr)
	}
	if tc.Type.Name != "Quantity" {
		t.Errorf("expected type name %q, got %q", "Quantity", tc.Type.Name)
	}

	expr, errs = ParseExpression("value as FHIR.Quantity")
	checkParserErrors(t, errs)
	cast, ok := expr.(*ast.TypeCast)
	if !ok {
		t.Fatalf("expected *ast.TypeCast, got %T", expr)
	}
	if cast.Type.Namespace != "FHIR" || cast.Type.Name != "Quantity" {
		t.Errorf("expected FHIR.Quantity, got %s.%s", cast.Type.Namespace, cast.Type.Name)
	}
}

func TestParseQuantityLiteral(t *testing.T) {
	expr, errs := ParseExpression("4 'mg'")
	checkParserErrors(t, errs)
	q, ok := expr.(*ast.QuantityLiteral)
	if !ok {
		t.Fatalf("expected *ast.QuantityLiteral, got %T", expr)
	}
	if q.ValueRaw != "4" || q.Unit != "mg" || !q.UnitQuoted {
		t.Errorf("unexpected quantity literal: %+v", q)
	}
}

func TestParseErrorRecoveryInArgumentList(t *testing.T) {
	// A malformed first argument should not prevent later arguments in the
	// same call from being reported as separate errors when possible, and
	// must not panic.
	_, errs := ParseExpression("foo(, 1)")
	if len(errs) == 0 {
		t.Fatal("expected at least one parse error")
	}
}

func TestParseUnexpectedTrailingToken(t *testing.T) {
	_, errs := ParseExpression("1 2")
	if len(errs) == 0 {
		t.Fatal("expected a trailing-token error")
	}
}

func TestParseGroupedExpression(t *testing.T) {
	expr, errs := ParseExpression("(1 + 2) * 3")
	checkParserErrors(t, errs)
	if expr.String() != "((1 + 2) * 3)" {
		t.Fatalf("expected %q, got %q", "((1 + 2) * 3)", expr.String())
	}
}

func TestParseEmptyLiteral(t *testing.T) {
	expr, errs := ParseExpression("{}")
	checkParserErrors(t, errs)
	if _, ok := expr.(*ast.EmptyLiteral); !ok {
		t.Fatalf("expected *ast.EmptyLiteral, got %T", expr)
	}
}

func TestParseUnionPrecedenceBelowAdditive(t *testing.T) {
	expr, errs := ParseExpression("1 + 2 | 3")
	checkParserErrors(t, errs)
	if expr.String() != "((1 + 2) | 3)" {
		t.Fatalf("expected %q, got %q", "((1 + 2) | 3)", expr.String())
	}
}
