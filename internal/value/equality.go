package value

import "time"

// Equal reports structural equality between two singleton values, used by
// distinct()/union()'s dedup logic and as the building block for the
// evaluator's three-valued `=` operator. It does not implement FHIRPath's
// empty-propagation rule (a three-valued `=` returns Empty, not false or
// true, when either side is empty) — callers needing that semantics use
// internal/evaluator, which calls this only once both sides are known
// non-empty.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		if isNumeric(a.Kind) && isNumeric(b.Kind) {
			return DecimalOf(a).Cmp(DecimalOf(b)) == 0
		}
		return false
	}
	switch a.Kind {
	case KindEmpty:
		return true
	case KindBoolean:
		return a.boolVal == b.boolVal
	case KindInteger:
		return a.intVal == b.intVal
	case KindDecimal:
		return a.decVal.Cmp(b.decVal) == 0
	case KindString:
		return a.strVal == b.strVal
	case KindDate, KindDateTime, KindTime:
		eq, ok := TemporalEqual(a.temporal, b.temporal)
		return ok && eq
	case KindQuantity:
		am, bm, ok := convertibleMagnitudes(a.quantity, b.quantity)
		return ok && am.Cmp(bm) == 0
	case KindTypeInfo:
		return a.typeInfo == b.typeInfo
	case KindCollection:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isNumeric(k Kind) bool { return k == KindInteger || k == KindDecimal }

// TemporalEqual reports equality between two temporals and whether that
// determination is conclusive, per SPEC_FULL.md §6 decision 3: mismatched
// precision is only ambiguous (ok=false, folding to Empty at the `=`
// operator) when the two values agree on every component they share but
// one specifies more than the other — a genuine difference within the
// shared precision is always conclusive, regardless of precision.
func TemporalEqual(a, b Temporal) (equal bool, ok bool) {
	cmp, determined := temporalCompare(a, b)
	if !determined {
		return false, false
	}
	return cmp == 0, true
}

// temporalCompare orders a and b, reporting ok=false when the comparison
// is indeterminate: both values agree on every component they share but
// their precisions differ, so the relative order of the unspecified
// remainder cannot be known.
func temporalCompare(a, b Temporal) (cmp int, ok bool) {
	p := a.Precision
	if b.Precision < p {
		p = b.Precision
	}
	at, bt := a.Time, b.Time
	if a.HasTZ && b.HasTZ {
		at = at.UTC()
		bt = bt.UTC()
	}
	if c, determined := compareTemporalComponents(at, bt, p); determined {
		return c, true
	}
	if a.Precision != b.Precision {
		return 0, false
	}
	return 0, true
}

// compareTemporalComponents compares at and bt component-by-component down
// to precision p. determined is true as soon as a differing component is
// found (cmp is trustworthy then regardless of p); if every component
// through p agrees, determined is false — the caller must still decide
// whether that means "equal" (precisions match) or "ambiguous" (they
// don't).
func compareTemporalComponents(at, bt time.Time, p Precision) (cmp int, determined bool) {
	cmpInt := func(x, y int) (int, bool) {
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		default:
			return 0, false
		}
	}
	if c, d := cmpInt(at.Year(), bt.Year()); d {
		return c, true
	}
	if p == PrecisionYear {
		return 0, false
	}
	if c, d := cmpInt(int(at.Month()), int(bt.Month())); d {
		return c, true
	}
	if p == PrecisionMonth {
		return 0, false
	}
	if c, d := cmpInt(at.Day(), bt.Day()); d {
		return c, true
	}
	if p == PrecisionDay {
		return 0, false
	}
	if c, d := cmpInt(at.Hour(), bt.Hour()); d {
		return c, true
	}
	if p == PrecisionHour {
		return 0, false
	}
	if c, d := cmpInt(at.Minute(), bt.Minute()); d {
		return c, true
	}
	if p == PrecisionMinute {
		return 0, false
	}
	if c, d := cmpInt(at.Second(), bt.Second()); d {
		return c, true
	}
	if p == PrecisionSecond {
		return 0, false
	}
	if c, d := cmpInt(at.Nanosecond()/1e6, bt.Nanosecond()/1e6); d {
		return c, true
	}
	return 0, false
}

// Compare orders two singleton values of compatible kinds; ok is false if
// the kinds are not mutually ordered (e.g. String vs Boolean).
func Compare(a, b Value) (cmp int, ok bool) {
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		return DecimalOf(a).Cmp(DecimalOf(b)), true
	}
	if a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case KindString:
		return compareStrings(a.strVal, b.strVal), true
	case KindDate, KindDateTime, KindTime:
		return temporalCompare(a.temporal, b.temporal)
	case KindQuantity:
		am, bm, ok := convertibleMagnitudes(a.quantity, b.quantity)
		if !ok {
			return 0, false
		}
		return am.Cmp(bm), true
	default:
		return 0, false
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
