package registry

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/octofhir/fhirpath-go/internal/value"
)

func registerMathBuiltins(r *DefaultRegistry) {
	dec := func(v value.Value) (*apd.Decimal, bool) {
		s, ok := v.Singleton()
		if !ok {
			return nil, false
		}
		d := value.DecimalOf(s)
		return d, d != nil
	}

	r.register("abs", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		d, ok := dec(base)
		if !ok {
			return value.Empty, nil
		}
		out := new(apd.Decimal)
		value.DecimalContext.Abs(out, d)
		return value.Dec(out), nil
	})
	r.register("ceiling", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		d, ok := dec(base)
		if !ok {
			return value.Empty, nil
		}
		// Copy value.DecimalContext before overriding Rounding: it is a
		// single shared *apd.Context, and mutating it in place would leak
		// RoundCeiling into every other decimal operation in the engine.
		ctx := *value.DecimalContext
		ctx.Rounding = apd.RoundCeiling
		out := new(apd.Decimal)
		_, _ = ctx.RoundToIntegralValue(out, d)
		return intIfWhole(out), nil
	})
	r.register("floor", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		d, ok := dec(base)
		if !ok {
			return value.Empty, nil
		}
		ctx := *value.DecimalContext
		ctx.Rounding = apd.RoundFloor
		out := new(apd.Decimal)
		_, _ = ctx.RoundToIntegralValue(out, d)
		return intIfWhole(out), nil
	})
	r.register("round", Signature{MinArgs: 0, MaxArgs: 1, Pure: true}, func(base value.Value, args Args) (value.Value, error) {
		d, ok := dec(base)
		if !ok {
			return value.Empty, nil
		}
		digits := int32(0)
		if len(args) == 1 {
			digits = int32(args[0].Int())
		}
		rounded := new(apd.Decimal)
		ctx := value.DecimalContext.WithPrecision(uint32(40))
		ctx.Rounding = apd.RoundHalfEven
		scale := new(apd.Decimal)
		_, _ = apd.BaseContext.Pow(scale, apd.New(10, 0), apd.New(int64(digits), 0))
		shifted := new(apd.Decimal)
		_, _ = ctx.Mul(shifted, d, scale)
		_, _ = ctx.RoundToIntegralValue(shifted, shifted)
		_, _ = ctx.Quo(rounded, shifted, scale)
		return value.Dec(rounded), nil
	})
	r.register("sqrt", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		d, ok := dec(base)
		if !ok {
			return value.Empty, nil
		}
		if d.Negative {
			return value.Empty, nil
		}
		out := new(apd.Decimal)
		if _, err := value.DecimalContext.Sqrt(out, d); err != nil {
			return value.Empty, nil
		}
		return value.Dec(out), nil
	})
	r.register("truncate", Signature{MinArgs: 0, MaxArgs: 0, Pure: true}, func(base value.Value, _ Args) (value.Value, error) {
		d, ok := dec(base)
		if !ok {
			return value.Empty, nil
		}
		out := new(apd.Decimal)
		_, _ = value.DecimalContext.RoundToIntegralExact(out, d)
		return intIfWhole(out), nil
	})
}

// intIfWhole narrows a whole-valued Decimal back to an Integer Value,
// since FHIRPath's ceiling()/floor()/truncate() are specified to return
// Integer, not Decimal.
func intIfWhole(d *apd.Decimal) value.Value {
	i, err := d.Int64()
	if err != nil {
		return value.Dec(d)
	}
	return value.Int(i)
}
