// Package cycle converts gateway timestamps into the ledger's canonical
// 17-digit form (YYYYMMDDHHMMSSmmm, UTC) and computes billing cycle windows.
package cycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical timestamp width used across the ledger.
const Layout = "20060102150405.000"

// Width of a canonical timestamp string.
const Width = 17

// millisThreshold separates epoch seconds from epoch milliseconds.
const millisThreshold = 1e12

type Period string

const (
	PeriodDaily     Period = "daily"
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

var ErrUnparseable = errors.New("cycle: unparseable timestamp")

// Cycle is a billing window. Empty strings stand for "absent".
type Cycle struct {
	Start string `json:"cycleStart"`
	End   string `json:"cycleEnd"`
}

// Valid reports whether the start could be resolved.
func (c Cycle) Valid() bool { return c.Start != "" }

// Compute normalizes raw and, when period is set, advances it by interval units.
// An unknown period leaves End empty. An unparseable raw, or a window reaching
// outside years 0000-9999, leaves both empty.
func Compute(raw any, period string, interval int) Cycle {
	start, err := ToTime(raw)
	if err != nil || !representable(start) {
		return Cycle{}
	}
	c := Cycle{Start: Format(start)}
	if period == "" {
		return c
	}
	if end, ok := Advance(start, Period(period), interval); ok {
		if !representable(end) {
			return Cycle{}
		}
		c.End = Format(end)
	}
	return c
}

// representable reports whether t fits the 17-digit form.
func representable(t time.Time) bool {
	y := t.UTC().Year()
	return y >= 0 && y <= 9999
}

// Normalize returns the canonical rendering of raw, or "" when it cannot be parsed.
func Normalize(raw any) string {
	return Compute(raw, "", 0).Start
}

// Advance moves t forward by interval units of period. A zero interval counts as one.
func Advance(t time.Time, period Period, interval int) (time.Time, bool) {
	n := interval
	if n == 0 {
		n = 1
	}
	switch period {
	case PeriodDaily:
		return t.AddDate(0, 0, n), true
	case PeriodWeekly:
		return t.AddDate(0, 0, 7*n), true
	case PeriodMonthly:
		return addMonths(t, n), true
	case PeriodQuarterly:
		return addMonths(t, 3*n), true
	case PeriodYearly:
		return addMonths(t, 12*n), true
	default:
		return time.Time{}, false
	}
}

// addMonths keeps the day of month, clamped to the last day of the target month.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	y += floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)
	if last := daysIn(y, month); d > last {
		d = last
	}
	return time.Date(y, month, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Format renders t in the canonical form, truncated to milliseconds.
func Format(t time.Time) string {
	return strings.Replace(t.UTC().Format(Layout), ".", "", 1)
}

// Parse reads a canonical 17-digit timestamp.
func Parse(s string) (time.Time, error) {
	if len(s) != Width || !isDigits(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}
	t, err := time.ParseInLocation(Layout, s[:14]+"."+s[14:], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return t, nil
}

// Now returns the current time in canonical form.
func Now() string { return Format(time.Now()) }

// ToTime accepts a canonical string or an epoch in seconds or milliseconds.
func ToTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, ErrUnparseable
	case time.Time:
		return v.UTC(), nil
	case *string:
		if v == nil {
			return time.Time{}, ErrUnparseable
		}
		return fromString(*v)
	case string:
		return fromString(v)
	case json.Number:
		return fromString(v.String())
	case int:
		return fromInt(int64(v)), nil
	case int32:
		return fromInt(int64(v)), nil
	case int64:
		return fromInt(v), nil
	case *int64:
		if v == nil {
			return time.Time{}, ErrUnparseable
		}
		return fromInt(*v), nil
	case uint:
		return fromInt(int64(v)), nil
	case uint32:
		return fromInt(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return time.Time{}, ErrUnparseable
		}
		return fromInt(int64(v)), nil
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrUnparseable, raw)
	}
}

func fromString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnparseable
	}
	if len(s) == Width && isDigits(s) {
		return Parse(s)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromInt(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
	}
	return fromFloat(f)
}

func fromInt(n int64) time.Time {
	if n > millisThreshold || n < -millisThreshold {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func fromFloat(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, ErrUnparseable
	}
	if math.Abs(f) > millisThreshold {
		f /= 1000
	}
	return time.UnixMicro(int64(math.Round(f * 1e6))).UTC(), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
