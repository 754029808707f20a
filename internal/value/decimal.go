package value

import "github.com/cockroachdb/apd/v3"

// DecimalContext is the arithmetic context used for every decimal
// operation in this engine: apd's baseline context gives 34 significant
// digits (decimal128-equivalent), comfortably exceeding the precision
// FHIRPath's source literals can express.
var DecimalContext = apd.BaseContext.WithPrecision(34)

// Dec wraps an existing *apd.Decimal as a Value. The decimal is not
// copied; callers must not mutate it afterward.
func Dec(d *apd.Decimal) Value { return Value{Kind: KindDecimal, decVal: d} }

// DecFromString parses raw (as produced by the tokenizer, with no leading
// '+' and no exponent per spec.md §4.1's number grammar) into a Decimal
// Value.
func DecFromString(raw string) (Value, error) {
	d, _, err := apd.NewFromString(raw)
	if err != nil {
		return Value{}, err
	}
	return Dec(d), nil
}

func (v Value) Decimal() *apd.Decimal { return v.decVal }

// DecimalOf coerces an Integer or Decimal value to *apd.Decimal, the
// common representation arithmetic and comparison operate over.
func DecimalOf(v Value) *apd.Decimal {
	switch v.Kind {
	case KindDecimal:
		return v.decVal
	case KindInteger:
		return apd.New(v.intVal, 0)
	default:
		return nil
	}
}
