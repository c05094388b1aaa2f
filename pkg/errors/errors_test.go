package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		expose    bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, expose: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, expose: true},
		{code: CodeForbidden, status: http.StatusForbidden, expose: true},
		{code: CodeNotFound, status: http.StatusNotFound, expose: true},
		{code: CodeStockConflict, status: http.StatusConflict, expose: true},
		{code: CodeCouponRejected, status: http.StatusUnprocessableEntity, expose: true},
		{code: CodeInvalidSignature, status: http.StatusUnauthorized},
		{code: CodeGateway, status: http.StatusBadGateway, retryable: true, expose: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.ExposeMessage != tt.expose {
			t.Fatalf("code %s expected expose %v got %v", tt.code, tt.expose, meta.ExposeMessage)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestPublicMessage(t *testing.T) {
	coupon := New(CodeCouponRejected, "This coupon has expired")
	if got := coupon.PublicMessage(); got != "This coupon has expired" {
		t.Fatalf("expected coupon message verbatim, got %q", got)
	}

	internal := New(CodeInternal, "pq: relation orders does not exist")
	if got := internal.PublicMessage(); got != "internal server error" {
		t.Fatalf("internal message leaked: %q", got)
	}

	sig := New(CodeInvalidSignature, "hmac mismatch")
	if got := sig.PublicMessage(); got != "Invalid signature" {
		t.Fatalf("unexpected signature message %q", got)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeGateway, cause, "create session")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeGateway {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsAndIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeStockConflict, "Insufficient stock for Vase. Max: 3"))
	if got := As(err); got == nil || got.Code() != CodeStockConflict {
		t.Fatalf("As failed to return typed error")
	}
	if !IsCode(err, CodeStockConflict) {
		t.Fatalf("IsCode should match wrapped code")
	}
	if IsCode(err, CodeCouponRejected) {
		t.Fatalf("IsCode matched the wrong code")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}
