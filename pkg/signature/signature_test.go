package signature

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerify_RoundTrip(t *testing.T) {
	body := []byte(`{"event":"subscription.charged"}`)
	sig := Sign(body, "whsec")

	require.True(t, Verify(body, sig, "whsec"))
	require.False(t, Verify(body, sig, "other"))
	require.False(t, Verify([]byte(`{"event":"subscription.halted"}`), sig, "whsec"))
}

func TestVerify_SingleBitFlip(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{}}`)
	raw, err := hex.DecodeString(Sign(body, "s3cr3t"))
	require.NoError(t, err)

	for i := 0; i < len(raw)*8; i++ {
		flipped := append([]byte(nil), raw...)
		flipped[i/8] ^= 1 << (i % 8)
		require.False(t, Verify(body, hex.EncodeToString(flipped), "s3cr3t"), "bit %d", i)
	}
}

func TestVerify_MalformedInput(t *testing.T) {
	body := []byte("x")
	cases := map[string]struct {
		sig    string
		secret string
	}{
		"empty signature": {"", "s"},
		"not hex":         {"zz-not-hex", "s"},
		"odd length":      {"abc", "s"},
		"empty secret":    {Sign(body, ""), ""},
		"truncated":       {Sign(body, "s")[:10], "s"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.False(t, Verify(body, tc.sig, tc.secret))
		})
	}
	require.False(t, Verify(nil, Sign(body, "s"), "s"))
}

func TestVerifyPayment(t *testing.T) {
	sig := Sign([]byte("order_1|pay_1"), "key_secret")

	require.True(t, VerifyPayment("order_1", "pay_1", sig, "key_secret"))
	require.False(t, VerifyPayment("order_1", "pay_2", sig, "key_secret"))
	require.False(t, VerifyPayment("", "pay_1", sig, "key_secret"))
}
