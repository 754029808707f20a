package evaluator

import "github.com/octofhir/fhirpath-go/internal/value"

// quantityArithmetic implements +, -, *, / across Quantity operands (and a
// bare numeric scalar multiplied/divided by a Quantity). Units must match
// exactly for +/-: internal/value's UCUM-aware conversion table is wired
// into Equal/Compare for comparison, but not yet into this arithmetic
// path, so mismatched-unit addition still folds to Empty rather than
// guessing which operand to convert and to what precision.
func quantityArithmetic(op string, l, r value.Value) (value.Value, error) {
	switch op {
	case "+", "-":
		lq, lok := asQuantity(l)
		rq, rok := asQuantity(r)
		if !lok || !rok || lq.Unit != rq.Unit {
			return value.Empty, nil
		}
		res, err := decimalArithmetic(op, lq.Value, rq.Value)
		if err != nil || res.IsEmpty() {
			return value.Empty, nil
		}
		return value.QuantityVal(value.Quantity{Value: res.Decimal(), Unit: lq.Unit}), nil
	case "*":
		lq, lIsQ := asQuantity(l)
		rq, rIsQ := asQuantity(r)
		switch {
		case lIsQ && rIsQ:
			return value.Empty, nil // unit^2 has no UCUM representation this engine derives
		case lIsQ:
			res, err := decimalArithmetic("*", lq.Value, value.DecimalOf(r))
			return requantify(res, lq.Unit, err)
		case rIsQ:
			res, err := decimalArithmetic("*", value.DecimalOf(l), rq.Value)
			return requantify(res, rq.Unit, err)
		}
	case "/":
		lq, lIsQ := asQuantity(l)
		rq, rIsQ := asQuantity(r)
		switch {
		case lIsQ && rIsQ && lq.Unit == rq.Unit:
			res, err := decimalArithmetic("/", lq.Value, rq.Value)
			if err != nil || res.IsEmpty() {
				return value.Empty, nil
			}
			return res, nil
		case lIsQ && !rIsQ:
			res, err := decimalArithmetic("/", lq.Value, value.DecimalOf(r))
			return requantify(res, lq.Unit, err)
		}
	}
	return value.Empty, nil
}

func asQuantity(v value.Value) (value.Quantity, bool) {
	if v.Kind != value.KindQuantity {
		return value.Quantity{}, false
	}
	return v.Quantity(), true
}

func requantify(res value.Value, unit string, err error) (value.Value, error) {
	if err != nil || res.IsEmpty() {
		return value.Empty, nil
	}
	return value.QuantityVal(value.Quantity{Value: res.Decimal(), Unit: unit}), nil
}
