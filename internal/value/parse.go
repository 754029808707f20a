package value

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ParseTemporalText parses the raw @-literal text (including the leading
// '@') per the grammar
// @YYYY[-MM[-DD]][Thh[:mm[:ss[.fff]]][Z|(+|-)hh:mm]] and @Thh[:mm[:ss[.fff]]].
// Both the bytecode compiler (constant folding at compile time) and the
// tree-walking evaluator (literal-node evaluation) decode @-literals this
// way; keeping the grammar in one place avoids two copies drifting apart.
func ParseTemporalText(raw string) (time.Time, Precision, bool, error) {
	s := strings.TrimPrefix(raw, "@")
	if strings.HasPrefix(s, "T") {
		return parseTimeOnly(s[1:])
	}

	layout := ""
	prec := PrecisionYear
	datePart := s
	timePart := ""
	if idx := strings.IndexByte(s, 'T'); idx >= 0 {
		datePart = s[:idx]
		timePart = s[idx+1:]
	}

	switch {
	case len(datePart) == 4:
		layout = "2006"
		prec = PrecisionYear
	case len(datePart) == 7:
		layout = "2006-01"
		prec = PrecisionMonth
	case len(datePart) == 10:
		layout = "2006-01-02"
		prec = PrecisionDay
	default:
		return time.Time{}, 0, false, errors.New("malformed date literal: " + raw)
	}
	t, err := time.Parse(layout, datePart)
	if err != nil {
		return time.Time{}, 0, false, err
	}
	if timePart == "" {
		return t, prec, false, nil
	}

	tod, todPrec, hasTZ, tz, err := parseTimeOfDay(timePart)
	if err != nil {
		return time.Time{}, 0, false, err
	}
	full := time.Date(t.Year(), t.Month(), t.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), tod.Nanosecond(), tz)
	return full, todPrec, hasTZ, nil
}

func parseTimeOnly(s string) (time.Time, Precision, bool, error) {
	tod, prec, hasTZ, tz, err := parseTimeOfDay(s)
	if err != nil {
		return time.Time{}, 0, false, err
	}
	full := time.Date(0, 1, 1, tod.Hour(), tod.Minute(), tod.Second(), tod.Nanosecond(), tz)
	return full, prec, hasTZ, nil
}

// parseTimeOfDay parses hh[:mm[:ss[.fff]]][Z|(+|-)hh:mm], returning the
// finest precision reached and whether a timezone was explicit.
func parseTimeOfDay(s string) (time.Time, Precision, bool, *time.Location, error) {
	tz := time.UTC
	hasTZ := false
	body := s
	if idx := strings.IndexAny(s, "Z+-"); idx >= 0 {
		hasTZ = true
		offsetText := s[idx:]
		body = s[:idx]
		if offsetText == "Z" {
			tz = time.UTC
		} else {
			sign := 1
			if offsetText[0] == '-' {
				sign = -1
			}
			parts := strings.Split(offsetText[1:], ":")
			h, _ := strconv.Atoi(parts[0])
			m := 0
			if len(parts) > 1 {
				m, _ = strconv.Atoi(parts[1])
			}
			tz = time.FixedZone("", sign*(h*3600+m*60))
		}
	}

	var layout string
	prec := PrecisionHour
	switch {
	case len(body) == 2:
		layout = "15"
		prec = PrecisionHour
	case len(body) == 5:
		layout = "15:04"
		prec = PrecisionMinute
	case len(body) == 8:
		layout = "15:04:05"
		prec = PrecisionSecond
	case len(body) > 8 && body[8] == '.':
		layout = "15:04:05.000"
		prec = PrecisionMillisecond
	default:
		return time.Time{}, 0, false, nil, errors.New("malformed time component: " + s)
	}
	t, err := time.Parse(layout, body)
	if err != nil {
		return time.Time{}, 0, false, nil, err
	}
	return t.In(tz), prec, hasTZ, tz, nil
}
