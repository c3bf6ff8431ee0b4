package cql2

import (
	"time"
)

// timestampLayouts covers RFC 3339 with and without fractional seconds and
// with a bare "Z" or a numeric offset. A timestamp with no offset at all is
// treated as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestampValue(v string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// instant returns the comparison instant of a Date, Timestamp, or
// OpenBound (ok=false means "infinitely past/future", handled by the caller).
func instant(e Expr) (time.Time, bool, error) {
	switch v := e.(type) {
	case Date:
		return v.Time, true, nil
	case Timestamp:
		return v.Time, true, nil
	case OpenBound:
		return time.Time{}, false, nil
	}
	return time.Time{}, false, newEvalError("", nil, "%T is not a temporal value", e)
}

// temporalRange normalizes Date/Timestamp/Interval into a [start, end]
// instant pair, using startOpen/endOpen to represent an open ".." side.
type temporalRange struct {
	start, end         time.Time
	hasStart, hasEnd   bool
	startOpen, endOpen bool
}

func toRange(e Expr) (temporalRange, error) {
	switch v := e.(type) {
	case Date:
		return temporalRange{start: v.Time, end: v.Time, hasStart: true, hasEnd: true}, nil
	case Timestamp:
		return temporalRange{start: v.Time, end: v.Time, hasStart: true, hasEnd: true}, nil
	case Interval:
		r := temporalRange{}
		if t, ok, err := instant(v.Start); err != nil {
			return r, err
		} else if ok {
			r.start, r.hasStart = t, true
		} else {
			r.startOpen = true
		}
		if t, ok, err := instant(v.End); err != nil {
			return r, err
		} else if ok {
			r.end, r.hasEnd = t, true
		} else {
			r.endOpen = true
		}
		return r, nil
	}
	return temporalRange{}, newEvalError("", nil, "%T is not an interval or instant", e)
}

// allenCompare implements the 13 Allen relations (plus the "intersects"/
// "disjoint" convenience predicates CQL2 adds), extended to
// degenerate intervals (instants) when both operands are constant.
func allenCompare(op string, a, b Expr) (bool, error) {
	ra, err := toRange(a)
	if err != nil {
		return false, err
	}
	rb, err := toRange(b)
	if err != nil {
		return false, err
	}

	before := func(x, y temporalRange) bool {
		if x.endOpen || y.startOpen {
			return false
		}
		return x.end.Before(y.start)
	}
	after := func(x, y temporalRange) bool { return before(y, x) }
	meets := func(x, y temporalRange) bool {
		if x.endOpen || y.startOpen {
			return false
		}
		return x.end.Equal(y.start)
	}
	equals := func(x, y temporalRange) bool {
		return x.startOpen == y.startOpen && x.endOpen == y.endOpen &&
			(x.startOpen || x.start.Equal(y.start)) &&
			(x.endOpen || x.end.Equal(y.end))
	}
	// Strict endpoint orderings; an open side is unbounded.
	endsBefore := func(x, y temporalRange) bool {
		return !x.endOpen && (y.endOpen || x.end.Before(y.end))
	}
	startsAfter := func(x, y temporalRange) bool {
		return !x.startOpen && (y.startOpen || x.start.After(y.start))
	}
	starts := func(x, y temporalRange) bool {
		return x.startOpen == y.startOpen && (x.startOpen || x.start.Equal(y.start)) && endsBefore(x, y)
	}
	finishes := func(x, y temporalRange) bool {
		return x.endOpen == y.endOpen && (x.endOpen || x.end.Equal(y.end)) && startsAfter(x, y)
	}
	during := func(x, y temporalRange) bool {
		return startsAfter(x, y) && endsBefore(x, y)
	}
	overlaps := func(x, y temporalRange) bool {
		var startBeforeY bool
		switch {
		case x.startOpen && y.startOpen:
			startBeforeY = false
		case x.startOpen:
			startBeforeY = true
		case y.startOpen:
			startBeforeY = false
		default:
			startBeforeY = x.start.Before(y.start)
		}
		endInsideY := !x.endOpen && (y.endOpen || x.end.Before(y.end)) && (y.startOpen || x.end.After(y.start))
		return startBeforeY && endInsideY
	}
	intersects := func(x, y temporalRange) bool {
		return !before(x, y) && !before(y, x)
	}

	switch op {
	case "t_before":
		return before(ra, rb), nil
	case "t_after":
		return after(ra, rb), nil
	case "t_equals":
		return equals(ra, rb), nil
	case "t_meets":
		return meets(ra, rb), nil
	case "t_metBy":
		return meets(rb, ra), nil
	case "t_starts":
		return starts(ra, rb), nil
	case "t_startedBy":
		return starts(rb, ra), nil
	case "t_finishes":
		return finishes(ra, rb), nil
	case "t_finishedBy":
		return finishes(rb, ra), nil
	case "t_during":
		return during(ra, rb), nil
	case "t_contains":
		return during(rb, ra), nil
	case "t_overlaps":
		return overlaps(ra, rb), nil
	case "t_overlappedBy":
		return overlaps(rb, ra), nil
	case "t_intersects":
		return intersects(ra, rb), nil
	case "t_disjoint":
		return !intersects(ra, rb), nil
	}
	return false, newEvalError(op, nil, "unknown temporal operator")
}

// addDuration implements calendar "+"/"-" between a temporal value and a
// numeric duration expressed in days, following ISO calendar semantics
// (no DST/leap-second special casing beyond what time.Time already does).
func addDuration(t time.Time, days float64, negate bool) time.Time {
	if negate {
		days = -days
	}
	whole := int(days)
	frac := days - float64(whole)
	t = t.AddDate(0, 0, whole)
	if frac != 0 {
		t = t.Add(time.Duration(frac * float64(24*time.Hour)))
	}
	return t
}

// canonicalTimestamp renders t at its parsed precision: whole seconds use
// RFC 3339, anything with a fractional component keeps nanosecond precision
// trimmed of trailing zeros.
func canonicalTimestamp(t time.Time) string {
	t = t.UTC()
	if t.Nanosecond() == 0 {
		return t.Format(time.RFC3339)
	}
	return t.Format(time.RFC3339Nano)
}
