package value

import "github.com/cockroachdb/apd/v3"

// Quantity is a numeric value with a UCUM (or calendar-duration) unit.
// Arithmetic across Quantities is the evaluator's concern (internal/
// evaluator); comparison/equality across compatible-but-different units
// is implemented in this package (convertibleMagnitudes below), since
// UCUM-aware comparison belongs at the Value-model level.
type Quantity struct {
	Value *apd.Decimal
	Unit  string
}

func QuantityVal(q Quantity) Value { return Value{Kind: KindQuantity, quantity: q} }

func (v Value) Quantity() Quantity { return v.quantity }

// calendarUnitToUCUM maps the bare calendar-duration words FHIRPath
// accepts after a numeric literal (`4 days`) to their UCUM equivalent, so
// `4 days` and `4 'd'` are comparable.
var calendarUnitToUCUM = map[string]string{
	"year": "a", "years": "a",
	"month": "mo", "months": "mo",
	"week": "wk", "weeks": "wk",
	"day": "d", "days": "d",
	"hour": "h", "hours": "h",
	"minute": "min", "minutes": "min",
	"second": "s", "seconds": "s",
	"millisecond": "ms", "milliseconds": "ms",
}

// NormalizeUnit maps a calendar-duration word to its UCUM code, or returns
// unit unchanged if it is already a UCUM code (or unrecognized).
func NormalizeUnit(unit string) string {
	if u, ok := calendarUnitToUCUM[unit]; ok {
		return u
	}
	return unit
}

// ucumDimension identifies the physical quantity a UCUM unit measures.
// Two Quantities only compare after conversion if they share a dimension;
// incompatible units compare false for `=`, empty for `<`/`>`.
type ucumDimension string

const (
	ucumDimTime   ucumDimension = "time"
	ucumDimMass   ucumDimension = "mass"
	ucumDimLength ucumDimension = "length"
)

// ucumPrefixes maps SI metric prefixes to the power-of-ten exponent they
// apply to a base unit, so "kg"/"mg"/"cm"/"km" etc. resolve without
// enumerating every prefix*base combination by hand. Longer (2-character)
// prefixes are tried before shorter ones so "da" (deka) isn't
// mis-decomposed as "d" (deci) plus a leftover "a".
var ucumPrefixes = map[string]int32{
	"Y": 24, "Z": 21, "E": 18, "P": 15, "T": 12, "G": 9, "M": 6, "k": 3, "h": 2, "da": 1,
	"d": -1, "c": -2, "m": -3, "u": -6, "µ": -6, "n": -9, "p": -12, "f": -15, "a": -18, "z": -21, "y": -24,
}

// ucumBaseUnits maps a bare (unprefixed) UCUM base unit symbol to its
// dimension.
var ucumBaseUnits = map[string]ucumDimension{
	"g": ucumDimMass,
	"m": ucumDimLength,
	"s": ucumDimTime,
}

// ucumFixedUnits lists UCUM time units whose conversion factor to the
// base unit "s" is fixed but not a power of ten, so they can't be
// expressed as a metric prefix over "s". `a` (year) and `mo` (month) use
// UCUM's mean Julian year (365.25 d) and its twelfth, for comparison
// purposes only — this is distinct from calendar-correct date arithmetic
// (internal/evaluator/temporal_arith.go), which has no single fixed
// length for a year/month and so doesn't use this table.
var ucumFixedUnits = map[string]struct {
	dim    ucumDimension
	factor int64 // multiple of the dimension's base unit
}{
	"min": {ucumDimTime, 60},
	"h":   {ucumDimTime, 3600},
	"d":   {ucumDimTime, 86400},
	"wk":  {ucumDimTime, 604800},
	"mo":  {ucumDimTime, 2629800},
	"a":   {ucumDimTime, 31557600},
}

// ucumUnitInfo reports unit's dimension and its conversion factor to that
// dimension's base unit (base unit itself has factor 1), or ok=false for
// an unrecognized unit.
func ucumUnitInfo(unit string) (dim ucumDimension, factor *apd.Decimal, ok bool) {
	if u, found := ucumFixedUnits[unit]; found {
		return u.dim, apd.New(u.factor, 0), true
	}
	if d, found := ucumBaseUnits[unit]; found {
		return d, apd.New(1, 0), true
	}
	for _, plen := range []int{2, 1} {
		if len(unit) <= plen {
			continue
		}
		prefix, base := unit[:plen], unit[plen:]
		exp, found := ucumPrefixes[prefix]
		if !found {
			continue
		}
		if d, found := ucumBaseUnits[base]; found {
			return d, apd.New(1, exp), true
		}
	}
	return "", nil, false
}

// convertibleMagnitudes converts a and b's magnitudes onto a common base
// unit for comparison. Identical unit strings always compare directly
// without going through the UCUM table (covers calendar-word units like
// "day" that aren't themselves UCUM symbols). ok is false when either
// unit is unrecognized or the two units belong to different dimensions.
func convertibleMagnitudes(a, b Quantity) (am, bm *apd.Decimal, ok bool) {
	if a.Unit == b.Unit {
		return a.Value, b.Value, true
	}
	adim, afactor, aok := ucumUnitInfo(a.Unit)
	bdim, bfactor, bok := ucumUnitInfo(b.Unit)
	if !aok || !bok || adim != bdim {
		return nil, nil, false
	}
	am = new(apd.Decimal)
	bm = new(apd.Decimal)
	if _, err := DecimalContext.Mul(am, a.Value, afactor); err != nil {
		return nil, nil, false
	}
	if _, err := DecimalContext.Mul(bm, b.Value, bfactor); err != nil {
		return nil, nil, false
	}
	return am, bm, true
}
