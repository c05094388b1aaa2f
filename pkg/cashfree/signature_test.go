package cashfree

import "testing"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK"}`)
	sig := Sign("sk", "1700000000", body)

	if !VerifySignature("sk", "1700000000", body, sig) {
		t.Fatal("expected signature to verify")
	}
	if VerifySignature("sk", "1700000001", body, sig) {
		t.Fatal("timestamp is part of the signed payload")
	}
	if VerifySignature("other", "1700000000", body, sig) {
		t.Fatal("wrong secret must not verify")
	}
	if VerifySignature("", "1700000000", body, Sign("", "1700000000", body)) {
		t.Fatal("empty secret must never verify")
	}
	if VerifySignature("sk", "1700000000", append(body, ' '), sig) {
		t.Fatal("modified body must not verify")
	}
}
