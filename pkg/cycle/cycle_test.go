package cycle

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_EpochSecondsAndMillisAgree(t *testing.T) {
	secs := Compute(int64(1735689600), "", 0)
	millis := Compute(int64(1735689600000), "", 0)

	require.Equal(t, "20250101000000000", secs.Start)
	require.Equal(t, secs.Start, millis.Start)
	require.Empty(t, secs.End)
}

func TestCompute_InputForms(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want string
	}{
		{"int", 1735689600, "20250101000000000"},
		{"float seconds", float64(1735689600.25), "20250101000000250"},
		{"float millis", float64(1735689600250), "20250101000000250"},
		{"numeric string", "1735689600", "20250101000000000"},
		{"millis string", "1735689600123", "20250101000000123"},
		{"json number", json.Number("1735689600"), "20250101000000000"},
		{"formatted", "20250131101112123", "20250131101112123"},
		{"padded formatted", " 20250131101112123 ", "20250131101112123"},
		{"time value", time.Date(2025, 2, 3, 4, 5, 6, 7_000_000, time.UTC), "20250203040506007"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compute(tc.raw, "", 0).Start)
		})
	}
}

func TestCompute_ParseFailures(t *testing.T) {
	for _, raw := range []any{nil, "", "abc", "20251301000000000", true, map[string]any{}} {
		c := Compute(raw, "monthly", 1)
		assert.False(t, c.Valid(), "raw=%v", raw)
		assert.Empty(t, c.End, "raw=%v", raw)
	}
}

func TestCompute_OutsideFourDigitYears(t *testing.T) {
	cases := []struct {
		name   string
		raw    any
		period string
	}{
		{"millis past 9999", int64(1e15), "monthly"},
		{"seconds at year 10000", int64(253402300800), ""},
		{"end rolls past 9999", "99991215000000000", "monthly"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Compute(tc.raw, tc.period, 1)
			assert.Equal(t, Cycle{}, c)
		})
	}

	last := Compute(int64(253402300799), "", 0)
	require.Equal(t, "99991231235959000", last.Start)
	_, err := Parse(last.Start)
	require.NoError(t, err)
}

func TestCompute_RoundTrip(t *testing.T) {
	first := Compute(int64(1735689600), "monthly", 1)
	again := Compute(first.Start, "monthly", 1)

	require.Equal(t, first.Start, again.Start)
	require.Equal(t, first.End, again.End)
}

func TestCompute_Periods(t *testing.T) {
	const start = "20250131000000000"
	cases := []struct {
		period   string
		interval int
		want     string
	}{
		{"daily", 1, "20250201000000000"},
		{"daily", 0, "20250201000000000"},
		{"weekly", 2, "20250214000000000"},
		{"monthly", 1, "20250228000000000"},
		{"monthly", 13, "20260228000000000"},
		{"quarterly", 1, "20250430000000000"},
		{"yearly", 1, "20260131000000000"},
	}
	for _, tc := range cases {
		t.Run(tc.period, func(t *testing.T) {
			c := Compute(start, tc.period, tc.interval)
			require.Equal(t, start, c.Start)
			assert.Equal(t, tc.want, c.End)
		})
	}
}

func TestCompute_MonthEndLeapYear(t *testing.T) {
	assert.Equal(t, "20240229000000000", Compute("20240131000000000", "monthly", 1).End)
	assert.Equal(t, "20250228000000000", Compute("20240229000000000", "yearly", 1).End)
}

func TestCompute_UnknownPeriod(t *testing.T) {
	c := Compute("20250131000000000", "fortnightly", 1)
	require.Equal(t, "20250131000000000", c.Start)
	require.Empty(t, c.End)
}

func TestFormatIsLexicographicallyOrdered(t *testing.T) {
	a := Format(time.Date(2025, 1, 1, 23, 59, 59, 999_000_000, time.UTC))
	b := Format(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	require.Len(t, a, Width)
	require.Less(t, a, b)
}

func TestParse(t *testing.T) {
	ts, err := Parse("20250315123456789")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 15, 12, 34, 56, 789_000_000, time.UTC), ts)

	_, err = Parse("2025031512345678")
	require.ErrorIs(t, err, ErrUnparseable)
}
