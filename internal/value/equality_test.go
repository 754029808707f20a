package value

import (
	"testing"
	"time"
)

func dt(year int, month time.Month, day, hour, min, sec int, p Precision, hasTZ bool) Temporal {
	return Temporal{Time: time.Date(year, month, day, hour, min, sec, 0, time.UTC), Precision: p, HasTZ: hasTZ}
}

func TestEqualScalars(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"ints equal", Int(1), Int(1), true},
		{"ints differ", Int(1), Int(2), false},
		{"int vs decimal same magnitude", Int(1), mustDecimalValue("1.0"), true},
		{"strings equal", Str("abc"), Str("abc"), true},
		{"strings differ", Str("abc"), Str("abd"), false},
		{"bools equal", Bool(true), Bool(true), true},
		{"kind mismatch non-numeric", Str("1"), Int(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func mustDecimalValue(s string) Value {
	v, err := DecFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestTemporalEqualSamePrecisionMatches(t *testing.T) {
	a := dt(2012, 1, 1, 0, 0, 0, PrecisionDay, false)
	b := dt(2012, 1, 1, 0, 0, 0, PrecisionDay, false)
	eq, ok := TemporalEqual(a, b)
	if !ok || !eq {
		t.Fatalf("expected conclusively equal, got eq=%v ok=%v", eq, ok)
	}
}

func TestTemporalEqualSamePrecisionDiffers(t *testing.T) {
	a := dt(2012, 1, 1, 0, 0, 0, PrecisionDay, false)
	b := dt(2012, 1, 2, 0, 0, 0, PrecisionDay, false)
	eq, ok := TemporalEqual(a, b)
	if !ok || eq {
		t.Fatalf("expected conclusively unequal, got eq=%v ok=%v", eq, ok)
	}
}

func TestTemporalEqualPrecisionMismatchIsAmbiguousWhenSharedComponentsMatch(t *testing.T) {
	year := dt(2012, 1, 1, 0, 0, 0, PrecisionYear, false)
	month := dt(2012, 1, 1, 0, 0, 0, PrecisionMonth, false)
	_, ok := TemporalEqual(year, month)
	if ok {
		t.Fatal("expected ok=false (ambiguous) when precisions differ but shared components agree")
	}
}

func TestTemporalEqualPrecisionMismatchIsConclusiveWhenSharedComponentsDiffer(t *testing.T) {
	year2012 := dt(2012, 1, 1, 0, 0, 0, PrecisionYear, false)
	month2013 := dt(2013, 3, 1, 0, 0, 0, PrecisionMonth, false)
	eq, ok := TemporalEqual(year2012, month2013)
	if !ok {
		t.Fatal("expected a conclusive comparison: years already differ")
	}
	if eq {
		t.Fatal("expected not-equal")
	}
}

func TestCompareTemporalOrdersByDifferingComponent(t *testing.T) {
	earlier := dt(2012, 1, 1, 0, 0, 0, PrecisionDay, false)
	later := dt(2012, 2, 1, 0, 0, 0, PrecisionDay, false)
	cmp, ok := temporalCompare(earlier, later)
	if !ok || cmp >= 0 {
		t.Fatalf("expected earlier < later, got cmp=%d ok=%v", cmp, ok)
	}
}

func TestCompareTemporalAmbiguousWhenPrecisionDiffers(t *testing.T) {
	year := dt(2012, 1, 1, 0, 0, 0, PrecisionYear, false)
	month := dt(2012, 1, 1, 0, 0, 0, PrecisionMonth, false)
	_, ok := temporalCompare(year, month)
	if ok {
		t.Fatal("expected ok=false for an indeterminate precision-mismatched comparison")
	}
}

func TestTemporalEqualNormalizesTimezonesBeforeComparing(t *testing.T) {
	utc := Temporal{Time: time.Date(2012, 1, 1, 10, 0, 0, 0, time.UTC), Precision: PrecisionHour, HasTZ: true}
	offset := Temporal{Time: time.Date(2012, 1, 1, 12, 0, 0, 0, time.FixedZone("+02:00", 2*3600)), Precision: PrecisionHour, HasTZ: true}
	eq, ok := TemporalEqual(utc, offset)
	if !ok || !eq {
		t.Fatalf("expected equal after UTC normalization, got eq=%v ok=%v", eq, ok)
	}
}

func TestCollectionEqual(t *testing.T) {
	a := Coll([]Value{Int(1), Int(2)})
	b := Coll([]Value{Int(1), Int(2)})
	c := Coll([]Value{Int(2), Int(1)})
	if !Equal(a, b) {
		t.Fatal("expected equal collections in the same order to be equal")
	}
	if Equal(a, c) {
		t.Fatal("expected order to matter for structural equality")
	}
}

func TestCompareStringsLexical(t *testing.T) {
	cmp, ok := Compare(Str("abc"), Str("abd"))
	if !ok || cmp >= 0 {
		t.Fatalf("expected abc < abd, got cmp=%d ok=%v", cmp, ok)
	}
}

func TestCompareIncompatibleKindsNotOrdered(t *testing.T) {
	_, ok := Compare(Str("x"), Bool(true))
	if ok {
		t.Fatal("expected String vs Boolean to be unordered")
	}
}

func qty(t *testing.T, v string, unit string) Value {
	t.Helper()
	d, err := DecFromString(v)
	if err != nil {
		t.Fatalf("DecFromString(%q): %v", v, err)
	}
	return QuantityVal(Quantity{Value: d.Decimal(), Unit: unit})
}

func TestQuantityEqualConvertsSamePrefixedDimension(t *testing.T) {
	if !Equal(qty(t, "1", "kg"), qty(t, "1000", "g")) {
		t.Fatal("expected 1 kg == 1000 g after UCUM conversion")
	}
	if !Equal(qty(t, "12", "h"), qty(t, "0.5", "d")) {
		t.Fatal("expected 12 h == 0.5 d after UCUM conversion")
	}
}

func TestQuantityEqualIncompatibleDimensionIsFalse(t *testing.T) {
	if Equal(qty(t, "1", "kg"), qty(t, "1", "m")) {
		t.Fatal("expected mass vs length to compare unequal")
	}
}

func TestQuantityEqualIdenticalUnitStringAlwaysComparesDirectly(t *testing.T) {
	// Identical unit strings compare directly without consulting the UCUM
	// table, so even an application-specific unit the table doesn't
	// recognize still compares correctly against itself.
	if !Equal(qty(t, "1", "furlong"), qty(t, "1", "furlong")) {
		t.Fatal("expected identical unit strings to compare equal regardless of UCUM recognition")
	}
}

func TestQuantityEqualUnrecognizedDifferentUnitIsFalse(t *testing.T) {
	if Equal(qty(t, "1", "furlong"), qty(t, "1", "chain")) {
		t.Fatal("expected two distinct unrecognized units to never compare equal")
	}
}

func TestQuantityCompareOrdersAfterConversion(t *testing.T) {
	cmp, ok := Compare(qty(t, "1", "h"), qty(t, "3600", "s"))
	if !ok || cmp != 0 {
		t.Fatalf("expected 1 h == 3600 s, got cmp=%d ok=%v", cmp, ok)
	}
	cmp, ok = Compare(qty(t, "30", "min"), qty(t, "1", "h"))
	if !ok || cmp >= 0 {
		t.Fatalf("expected 30 min < 1 h, got cmp=%d ok=%v", cmp, ok)
	}
}

func TestQuantityCompareIncompatibleDimensionNotOrdered(t *testing.T) {
	_, ok := Compare(qty(t, "1", "kg"), qty(t, "1", "m"))
	if ok {
		t.Fatal("expected mass vs length to be unordered")
	}
}
