package cashfree

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Webhook headers carrying the signature inputs.
const (
	HeaderSignature = "x-webhook-signature"
	HeaderTimestamp = "x-webhook-timestamp"
)

// Sign computes base64(HMAC-SHA256(secret, timestamp+body)).
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time. An empty
// secret never verifies.
func VerifySignature(secret, timestamp string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
