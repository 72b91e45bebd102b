package tool

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInt64(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{500, 500, true},
		{float64(12), 12, true},
		{json.Number("42"), 42, true},
		{" 7 ", 7, true},
		{"3.0", 3, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseInt64(tc.in)
		require.Equal(t, tc.ok, ok, "%v", tc.in)
		require.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func TestContentID(t *testing.T) {
	a := ContentID([]byte(`{"a":1}`))
	require.True(t, strings.HasPrefix(a, "sha256:"))
	require.Equal(t, a, ContentID([]byte(`{"a":1}`)))
	require.NotEqual(t, a, ContentID([]byte(`{"a":2}`)))
}
