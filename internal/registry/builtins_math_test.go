package registry

import (
	"testing"

	"github.com/octofhir/fhirpath-go/internal/value"
)

func evalBuiltin(t *testing.T, r *DefaultRegistry, name string, base value.Value, args ...value.Value) value.Value {
	t.Helper()
	v, err := r.Evaluate(name, base, Args(args))
	if err != nil {
		t.Fatalf("Evaluate(%q): unexpected error: %v", name, err)
	}
	return v
}

func mustDec(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.DecFromString(s)
	if err != nil {
		t.Fatalf("DecFromString(%q): %v", s, err)
	}
	return v
}

func TestAbs(t *testing.T) {
	r := NewDefault()
	v := evalBuiltin(t, r, "abs", mustDec(t, "-1.5"))
	d, ok := v.Singleton()
	if !ok || d.Decimal().String() != "1.5" {
		t.Fatalf("expected 1.5, got %+v", v)
	}
}

func TestCeilingAndFloor(t *testing.T) {
	r := NewDefault()

	v := evalBuiltin(t, r, "ceiling", mustDec(t, "1.1"))
	n, ok := v.Singleton()
	if !ok || n.Kind != value.KindInteger || n.Int() != 2 {
		t.Fatalf("ceiling(1.1): expected Integer 2, got %+v", v)
	}

	v = evalBuiltin(t, r, "floor", mustDec(t, "1.9"))
	n, ok = v.Singleton()
	if !ok || n.Kind != value.KindInteger || n.Int() != 1 {
		t.Fatalf("floor(1.9): expected Integer 1, got %+v", v)
	}

	v = evalBuiltin(t, r, "ceiling", mustDec(t, "-1.1"))
	n, ok = v.Singleton()
	if !ok || n.Int() != -1 {
		t.Fatalf("ceiling(-1.1): expected Integer -1, got %+v", v)
	}
}

func TestRoundWithDigits(t *testing.T) {
	r := NewDefault()
	v := evalBuiltin(t, r, "round", mustDec(t, "3.14159"), value.Int(2))
	d, ok := v.Singleton()
	if !ok || d.Decimal().String() != "3.14" {
		t.Fatalf("round(3.14159, 2): expected 3.14, got %+v", v)
	}
}

func TestRoundDefaultsToZeroDigits(t *testing.T) {
	r := NewDefault()
	v := evalBuiltin(t, r, "round", mustDec(t, "2.5"))
	d, ok := v.Singleton()
	if !ok {
		t.Fatalf("expected a singleton, got %+v", v)
	}
	// RoundHalfEven: 2.5 rounds to the nearest even integer, 2.
	if d.Decimal().String() != "2" {
		t.Fatalf("round(2.5): expected banker's rounding to 2, got %s", d.Decimal().String())
	}
}

func TestSqrt(t *testing.T) {
	r := NewDefault()
	v := evalBuiltin(t, r, "sqrt", mustDec(t, "4"))
	d, ok := v.Singleton()
	if !ok || d.Decimal().String() != "2" {
		t.Fatalf("sqrt(4): expected 2, got %+v", v)
	}

	v = evalBuiltin(t, r, "sqrt", mustDec(t, "-4"))
	if !v.IsEmpty() {
		t.Fatalf("sqrt(-4): expected Empty, got %+v", v)
	}
}

func TestTruncate(t *testing.T) {
	r := NewDefault()
	v := evalBuiltin(t, r, "truncate", mustDec(t, "1.9"))
	n, ok := v.Singleton()
	if !ok || n.Kind != value.KindInteger || n.Int() != 1 {
		t.Fatalf("truncate(1.9): expected Integer 1, got %+v", v)
	}

	v = evalBuiltin(t, r, "truncate", mustDec(t, "-1.9"))
	n, ok = v.Singleton()
	if !ok || n.Int() != -1 {
		t.Fatalf("truncate(-1.9): expected Integer -1, got %+v", v)
	}
}

func TestMathBuiltinsFoldEmptyOnEmptyBase(t *testing.T) {
	r := NewDefault()
	for _, name := range []string{"abs", "ceiling", "floor", "round", "sqrt", "truncate"} {
		v := evalBuiltin(t, r, name, value.Empty)
		if !v.IsEmpty() {
			t.Errorf("%s({}): expected Empty, got %+v", name, v)
		}
	}
}

func TestRegexpMatch(t *testing.T) {
	ok, err := regexpMatch(`^[a-z]+$`, "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected ^[a-z]+$ to match 'abc'")
	}

	ok, err = regexpMatch(`^[a-z]+$`, "ABC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ^[a-z]+$ not to match 'ABC'")
	}
}

func TestRegexpMatchInvalidPatternErrors(t *testing.T) {
	_, err := regexpMatch(`(unclosed`, "abc")
	if err == nil {
		t.Fatal("expected an error for an invalid regex pattern")
	}
}

func TestMatchesBuiltin(t *testing.T) {
	r := NewDefault()
	v := evalBuiltin(t, r, "matches", value.Str("hello123"), value.Str(`^[a-z]+\d+$`))
	b, ok := v.Singleton()
	if !ok || !b.Bool() {
		t.Fatalf("expected matches() true, got %+v", v)
	}
}
