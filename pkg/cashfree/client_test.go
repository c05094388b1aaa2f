package cashfree

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/printshop-backend/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(config.CashfreeConfig{AppID: "app", SecretKey: "sk", BaseURL: srv.URL}, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestCreateOrderSendsCredentialsAndDecodesSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-client-id") != "app" || r.Header.Get("x-client-secret") != "sk" {
			t.Fatalf("missing credentials headers")
		}
		if r.Header.Get("x-api-version") != "2023-08-01" {
			t.Fatalf("unexpected api version %q", r.Header.Get("x-api-version"))
		}
		var body CreateOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.OrderID != "ord-1" || body.OrderAmount != 1052 || body.OrderCurrency != "INR" {
			t.Fatalf("unexpected body %+v", body)
		}
		if body.OrderMeta.ReturnURL == "" || body.OrderMeta.NotifyURL == "" {
			t.Fatalf("expected order meta urls")
		}
		_, _ = w.Write([]byte(`{"cf_order_id":2149460581,"order_id":"ord-1","order_status":"ACTIVE","payment_session_id":"session_abc"}`))
	})

	resp, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		OrderID:         "ord-1",
		OrderAmount:     1052,
		CustomerDetails: CustomerDetails{CustomerID: "u1", CustomerPhone: "9876543210"},
		OrderMeta:       OrderMeta{ReturnURL: "https://shop/orders/verify?order_id=ord-1", NotifyURL: "https://shop/api/v1/payments/webhook"},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if resp.PaymentSessionID != "session_abc" {
		t.Fatalf("unexpected session %q", resp.PaymentSessionID)
	}
	if resp.CFOrderID.String() != "2149460581" {
		t.Fatalf("numeric cf_order_id not decoded, got %q", resp.CFOrderID)
	}
}

func TestCreateOrderMissingSessionIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"order_id":"ord-1"}`))
	})
	if _, err := client.CreateOrder(context.Background(), CreateOrderRequest{OrderID: "ord-1", OrderAmount: 10}); err == nil {
		t.Fatal("expected error for missing payment_session_id")
	}
}

func TestCreateOrderAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"customer_phone is invalid","code":"customer_details.customer_phone_invalid","type":"invalid_request_error"}`))
	})
	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{OrderID: "ord-1", OrderAmount: 10})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Message != "customer_phone is invalid" || apiErr.Temporary() {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestFetchPaymentsReturnsNewestFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders/ord-9/payments" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"cf_payment_id":"885","order_id":"ord-9","payment_status":"SUCCESS"},{"cf_payment_id":884,"order_id":"ord-9","payment_status":"FAILED"}]`))
	})
	payments, err := client.FetchPayments(context.Background(), "ord-9")
	if err != nil {
		t.Fatalf("fetch payments: %v", err)
	}
	if len(payments) != 2 || payments[0].PaymentStatus != PaymentStatusSuccess || payments[1].CFPaymentID != "884" {
		t.Fatalf("unexpected payments %+v", payments)
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	for i := 0; i < breakerTripAfter; i++ {
		if _, err := client.FetchPayments(context.Background(), "ord-1"); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}
	_, err := client.FetchPayments(context.Background(), "ord-1")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != breakerTripAfter {
		t.Fatalf("expected %d upstream calls, got %d", breakerTripAfter, got)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"order not found"}`))
	})
	for i := 0; i < breakerTripAfter+2; i++ {
		_, err := client.FetchPayments(context.Background(), "missing")
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("breaker opened on client errors at call %d", i)
		}
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(config.CashfreeConfig{AppID: "app"}, nil); err == nil {
		t.Fatal("expected missing secret to fail")
	}
}

func TestBaseURLForEnvironment(t *testing.T) {
	if got := baseURLFor(config.CashfreeConfig{Env: "production"}); got != ProductionBaseURL {
		t.Fatalf("expected production url, got %s", got)
	}
	if got := baseURLFor(config.CashfreeConfig{}); got != SandboxBaseURL {
		t.Fatalf("expected sandbox url, got %s", got)
	}
}
