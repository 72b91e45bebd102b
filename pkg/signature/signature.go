package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns the hex encoded HMAC-SHA256 of body keyed by secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether provided is the HMAC-SHA256 of body under secret.
// Malformed input yields false.
func Verify(body []byte, provided, secret string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	provided = strings.TrimSpace(provided)
	if provided == "" || secret == "" {
		return false
	}
	got, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// VerifyPayment checks a checkout signature, computed over "orderID|paymentID"
// with the API key secret.
func VerifyPayment(orderID, paymentID, provided, keySecret string) bool {
	if orderID == "" || paymentID == "" {
		return false
	}
	return Verify([]byte(orderID+"|"+paymentID), provided, keySecret)
}
