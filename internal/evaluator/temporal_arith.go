package evaluator

import (
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/octofhir/fhirpath-go/internal/value"
)

var nanosPerDay = apd.New(86400000000000, 0)

// temporalQuantityArithmetic implements Date/DateTime/Time +/- a duration
// Quantity. `year`/`a` and `month`/`mo` are not supported for date
// arithmetic and fold to Empty: unlike internal/value's
// UCUM comparison table (which treats a year/month as a fixed number of
// days for comparison purposes), shifting a calendar date by a year or
// month has no single correct answer independent of the date it starts
// from, so this engine declines rather than guess. `week`/`wk` and
// `day`/`d` shift whole calendar days via time.AddDate, with a fractional
// remainder truncated for Date and converted to seconds for DateTime/
// Time; `hour`/`minute`/`second`/`millisecond` convert exactly to a
// time.Duration. Any other unit folds to Empty.
func temporalQuantityArithmetic(op string, t, q value.Value) (value.Value, error) {
	if op != "+" && op != "-" {
		return value.Empty, nil
	}
	sign := int64(1)
	if op == "-" {
		sign = -1
	}

	qty := q.Quantity()
	temporal := t.Temporal()
	shifted, ok := shiftTemporal(temporal.Time, qty.Unit, qty.Value, sign, t.Kind)
	if !ok {
		return value.Empty, nil
	}
	out := value.Temporal{Time: shifted, Precision: temporal.Precision, HasTZ: temporal.HasTZ}

	switch t.Kind {
	case value.KindDate:
		return value.DateVal(out), nil
	case value.KindDateTime:
		return value.DateTimeVal(out), nil
	case value.KindTime:
		return value.TimeVal(out), nil
	default:
		return value.Empty, nil
	}
}

func shiftTemporal(t time.Time, unit string, magnitude *apd.Decimal, sign int64, kind value.Kind) (time.Time, bool) {
	switch unit {
	case "week", "weeks", "wk":
		return shiftByDays(t, magnitude, sign, 7, kind)
	case "day", "days", "d":
		return shiftByDays(t, magnitude, sign, 1, kind)
	case "hour", "hours", "h":
		return shiftByDuration(t, magnitude, sign, time.Hour)
	case "minute", "minutes", "min":
		return shiftByDuration(t, magnitude, sign, time.Minute)
	case "second", "seconds", "s":
		return shiftByDuration(t, magnitude, sign, time.Second)
	case "millisecond", "milliseconds", "ms":
		return shiftByDuration(t, magnitude, sign, time.Millisecond)
	default:
		return time.Time{}, false
	}
}

// shiftByDays shifts t by magnitude*daysPerUnit days (a signed quantity of
// weeks or days). The whole-day part always shifts via AddDate so month
// boundaries behave calendar-correctly; a Date discards any fractional
// remainder, a DateTime/Time converts it to seconds and adds it as a
// fixed duration.
func shiftByDays(t time.Time, magnitude *apd.Decimal, sign int64, daysPerUnit int64, kind value.Kind) (time.Time, bool) {
	if magnitude == nil {
		return time.Time{}, false
	}
	total := new(apd.Decimal)
	if _, err := value.DecimalContext.Mul(total, magnitude, apd.New(daysPerUnit*sign, 0)); err != nil {
		return time.Time{}, false
	}

	truncCtx := *value.DecimalContext
	truncCtx.Rounding = apd.RoundDown
	whole := new(apd.Decimal)
	if _, err := truncCtx.RoundToIntegralValue(whole, total); err != nil {
		return time.Time{}, false
	}
	wholeDays, err := whole.Int64()
	if err != nil {
		return time.Time{}, false
	}
	shifted := t.AddDate(0, 0, int(wholeDays))
	if kind == value.KindDate {
		return shifted, true
	}

	remainder := new(apd.Decimal)
	if _, err := value.DecimalContext.Sub(remainder, total, whole); err != nil {
		return time.Time{}, false
	}
	nanosDec := new(apd.Decimal)
	if _, err := value.DecimalContext.Mul(nanosDec, remainder, nanosPerDay); err != nil {
		return time.Time{}, false
	}
	rounded := new(apd.Decimal)
	if _, err := value.DecimalContext.RoundToIntegralValue(rounded, nanosDec); err != nil {
		return time.Time{}, false
	}
	nanos, err := rounded.Int64()
	if err != nil {
		return time.Time{}, false
	}
	return shifted.Add(time.Duration(nanos)), true
}

// shiftByDuration adds a signed, possibly fractional, quantity of unit
// (hour/minute/second/millisecond) to t by converting it exactly to
// nanoseconds — these units carry no calendar ambiguity, unlike day/week.
func shiftByDuration(t time.Time, magnitude *apd.Decimal, sign int64, unit time.Duration) (time.Time, bool) {
	if magnitude == nil {
		return time.Time{}, false
	}
	total := new(apd.Decimal)
	if _, err := value.DecimalContext.Mul(total, magnitude, apd.New(int64(unit)*sign, 0)); err != nil {
		return time.Time{}, false
	}
	rounded := new(apd.Decimal)
	if _, err := value.DecimalContext.RoundToIntegralValue(rounded, total); err != nil {
		return time.Time{}, false
	}
	nanos, err := rounded.Int64()
	if err != nil {
		return time.Time{}, false
	}
	return t.Add(time.Duration(nanos)), true
}
