package fhirpath_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/octofhir/fhirpath-go/fhirpath"
	"github.com/octofhir/fhirpath-go/internal/value"
)

func patientRoot(t *testing.T) value.Value {
	t.Helper()
	raw := []byte(`{
		"resourceType": "Patient",
		"name": [
			{"use": "official", "family": "Doe", "given": ["Jane"]},
			{"use": "nickname", "family": "JD"}
		],
		"telecom": [
			{"system": "phone", "value": "555-0100"},
			{"system": "email", "value": "a@b"}
		]
	}`)
	return value.ResourceVal(value.NewResource(raw))
}

func evalString(t *testing.T, expr string, root value.Value) value.Value {
	t.Helper()
	v, err := fhirpath.Eval(expr, root)
	if err != nil {
		t.Fatalf("Eval(%q): unexpected error: %v", expr, err)
	}
	return v
}

func TestEndToEndScenarios(t *testing.T) {
	root := patientRoot(t)

	t.Run("where then path projects matching family name", func(t *testing.T) {
		v := evalString(t, "Patient.name.where(use = 'official').family", root)
		items := v.Items()
		if len(items) != 1 || items[0].Str() != "Doe" {
			t.Fatalf("expected [Doe], got %+v", items)
		}
	})

	t.Run("where with $this over a union count", func(t *testing.T) {
		v := evalString(t, "(1 | 2 | 3).where($this > 1).count()", value.Empty)
		n, ok := v.Singleton()
		if !ok || n.Int() != 2 {
			t.Fatalf("expected 2, got %+v", v)
		}
	})

	t.Run("arithmetic precedence", func(t *testing.T) {
		v := evalString(t, "1 + 2 * 3", value.Empty)
		n, ok := v.Singleton()
		if !ok || n.Int() != 7 {
			t.Fatalf("expected 7, got %+v", v)
		}
	})

	t.Run("replace with empty old substring", func(t *testing.T) {
		v := evalString(t, "'abc'.replace('', 'x')", value.Empty)
		s, ok := v.Singleton()
		if !ok || s.Str() != "xaxbxcx" {
			t.Fatalf("expected 'xaxbxcx', got %+v", v)
		}
	})

	t.Run("iif true branch", func(t *testing.T) {
		v := evalString(t, "iif(true, 'y', 'n')", value.Empty)
		s, ok := v.Singleton()
		if !ok || s.Str() != "y" {
			t.Fatalf("expected 'y', got %+v", v)
		}
	})

	t.Run("empty collection predicates", func(t *testing.T) {
		v := evalString(t, "{}.exists()", value.Empty)
		b, ok := v.Singleton()
		if !ok || b.Bool() != false {
			t.Fatalf("expected false, got %+v", v)
		}
		v = evalString(t, "{}.empty()", value.Empty)
		b, ok = v.Singleton()
		if !ok || b.Bool() != true {
			t.Fatalf("expected true, got %+v", v)
		}
	})

	t.Run("substring", func(t *testing.T) {
		v := evalString(t, "'hello'.substring(1, 3)", value.Empty)
		s, ok := v.Singleton()
		if !ok || s.Str() != "ell" {
			t.Fatalf("expected 'ell', got %+v", v)
		}
	})

	t.Run("telecom email lookup", func(t *testing.T) {
		v := evalString(t, "Patient.telecom.where(system = 'email').first().value", root)
		s, ok := v.Singleton()
		if !ok || s.Str() != "a@b" {
			t.Fatalf("expected 'a@b', got %+v", v)
		}
	})

	t.Run("defineVariable then use in select", func(t *testing.T) {
		v := evalString(t, "defineVariable('v', 2).select(%v * 3)", value.Int(1))
		n, ok := v.Singleton()
		if !ok || n.Int() != 6 {
			t.Fatalf("expected 6, got %+v", v)
		}
	})

	t.Run("redefining a variable in the same scope errors", func(t *testing.T) {
		_, err := fhirpath.Eval("defineVariable('v', 1).defineVariable('v', 2)", value.Int(1))
		if err == nil {
			t.Fatal("expected an error redefining 'v' in the same scope")
		}
	})
}

func TestThreeValuedEquality(t *testing.T) {
	v := evalString(t, "{} = {}", value.Empty)
	if !v.IsEmpty() {
		t.Fatalf("expected Empty, got %+v", v)
	}
	v = evalString(t, "1 = {}", value.Empty)
	if !v.IsEmpty() {
		t.Fatalf("expected Empty, got %+v", v)
	}
}

func TestTemporalArithmetic(t *testing.T) {
	v := evalString(t, "@2023-01-15 + 1 'day'", value.Empty)
	s, ok := v.Singleton()
	if !ok || s.Kind != value.KindDate {
		t.Fatalf("expected a Date, got %+v", v)
	}

	v = evalString(t, "@2023-01-15 + 1 'furlong'", value.Empty)
	if !v.IsEmpty() {
		t.Fatalf("expected Empty adding an incompatible unit, got %+v", v)
	}

	// spec.md §8: year/month quantities are explicitly not supported for
	// date arithmetic, unlike day/week.
	v = evalString(t, "@2023-01-15 + 1 'a'", value.Empty)
	if !v.IsEmpty() {
		t.Fatalf("expected Empty adding a year quantity to a Date, got %+v", v)
	}
	v = evalString(t, "@2023-01-15 + 1 'mo'", value.Empty)
	if !v.IsEmpty() {
		t.Fatalf("expected Empty adding a month quantity to a Date, got %+v", v)
	}

	// Fractional days truncate for Date arithmetic.
	v = evalString(t, "@2023-01-15 + 1.9 'day'", value.Empty)
	s, ok = v.Singleton()
	if !ok || s.Kind != value.KindDate {
		t.Fatalf("expected a Date, got %+v", v)
	}
	want := evalString(t, "@2023-01-16", value.Empty)
	if !value.Equal(s, want.Items()[0]) {
		t.Fatalf("expected the fractional day truncated to @2023-01-16, got %+v", s)
	}

	// Fractional days convert to seconds for DateTime arithmetic.
	v = evalString(t, "@2023-01-15T00:00:00 + 0.5 'day'", value.Empty)
	s, ok = v.Singleton()
	if !ok || s.Kind != value.KindDateTime {
		t.Fatalf("expected a DateTime, got %+v", v)
	}
	want = evalString(t, "@2023-01-15T12:00:00", value.Empty)
	if !value.Equal(s, want.Items()[0]) {
		t.Fatalf("expected the half-day remainder converted to 12 hours, got %+v", s)
	}
}

func TestQuantityEqualityConvertsCompatibleUnits(t *testing.T) {
	v := evalString(t, "1 'kg' = 1000 'g'", value.Empty)
	b, ok := v.Singleton()
	if !ok || !b.Bool() {
		t.Fatalf("expected 1 'kg' = 1000 'g' to be true, got %+v", v)
	}

	v = evalString(t, "12 'h' = 0.5 'd'", value.Empty)
	b, ok = v.Singleton()
	if !ok || !b.Bool() {
		t.Fatalf("expected 12 'h' = 0.5 'd' to be true, got %+v", v)
	}

	v = evalString(t, "1 'kg' = 1 'm'", value.Empty)
	b, ok = v.Singleton()
	if !ok || b.Bool() {
		t.Fatalf("expected incompatible dimensions to compare false, got %+v", v)
	}
}

func TestTemporalPrecisionMismatchEqualityIsAmbiguous(t *testing.T) {
	// @2012 and @2012-01 agree on every component they share (year) but
	// differ in stated precision, so `=` must fold to Empty rather than
	// truncate-compare to true.
	v := evalString(t, "@2012 = @2012-01", value.Empty)
	if !v.IsEmpty() {
		t.Fatalf("expected Empty for a precision-mismatched comparison, got %+v", v)
	}

	v = evalString(t, "@2012 = @2013-01", value.Empty)
	b, ok := v.Singleton()
	if !ok || b.Bool() != false {
		t.Fatalf("expected false for a conclusively different year, got %+v", v)
	}

	v = evalString(t, "@2012-01-01 = @2012-01-01", value.Empty)
	b, ok = v.Singleton()
	if !ok || b.Bool() != true {
		t.Fatalf("expected true for identical same-precision dates, got %+v", v)
	}
}

func TestTraceWritesToConfiguredWriter(t *testing.T) {
	var buf bytes.Buffer
	_, err := fhirpath.Eval("(1 | 2).trace('nums')", value.Empty, fhirpath.WithTraceWriter(&buf))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "nums") {
		t.Fatalf("expected trace output to mention the label, got %q", buf.String())
	}
}

func TestBytecodeMatchesTreeWalkingEvaluator(t *testing.T) {
	root := patientRoot(t)
	exprs := []string{
		"Patient.name.where(use = 'official').family",
		"(1 | 2 | 3).where($this > 1).count()",
		"1 + 2 * 3",
		"iif(true, 'y', 'n')",
		"'hello'.substring(1, 3)",
		"@2023-01-15 + 1 'day'",
	}
	for _, expr := range exprs {
		treeVal, err := fhirpath.Eval(expr, root)
		if err != nil {
			t.Fatalf("tree-walker Eval(%q): unexpected error: %v", expr, err)
		}
		vmVal, err := fhirpath.Eval(expr, root, fhirpath.WithBytecode(true))
		if err != nil {
			t.Fatalf("bytecode Eval(%q): unexpected error: %v", expr, err)
		}
		treeItems := treeVal.Items()
		vmItems := vmVal.Items()
		if len(treeItems) != len(vmItems) {
			t.Fatalf("expr %q: tree-walker and VM produced different lengths: %d vs %d", expr, len(treeItems), len(vmItems))
		}
		for i := range treeItems {
			if !value.Equal(treeItems[i], vmItems[i]) {
				t.Fatalf("expr %q: tree-walker and VM disagree at item %d: %+v vs %+v", expr, i, treeItems[i], vmItems[i])
			}
		}
	}
}

func TestStrictModeUnknownPropertyIsError(t *testing.T) {
	root := patientRoot(t)
	_, err := fhirpath.Eval("Patient.doesNotExist", root, fhirpath.WithStrictMode(true))
	if err == nil {
		t.Fatal("expected an error for an unknown property under strict mode")
	}
	v, err := fhirpath.Eval("Patient.doesNotExist", root)
	if err != nil {
		t.Fatalf("non-strict mode should fold to Empty, got error: %v", err)
	}
	if !v.IsEmpty() {
		t.Fatalf("expected Empty, got %+v", v)
	}
}

func TestParseErrorOnIncompleteExpression(t *testing.T) {
	_, err := fhirpath.Eval("1 +", value.Empty)
	if err == nil {
		t.Fatal("expected a parse error for an incomplete expression")
	}
}
