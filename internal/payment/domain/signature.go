package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// VerifySignature checks the gateway callback signature: HMAC-SHA256 over
// "<orderRef>|<paymentRef>" keyed by the shared secret, hex encoded. The
// comparison is constant time and any missing input fails closed.
func VerifySignature(orderRef, paymentRef, signature, secret string) bool {
	if orderRef == "" || paymentRef == "" || signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
