package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/printshop-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/printshop-backend/internal/checkout"
	"github.com/angelmondragon/printshop-backend/internal/pricing"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

type stubCheckoutService struct {
	got    checkoutsvc.PlaceOrderInput
	result *checkoutsvc.PlaceOrderResult
	err    error
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*checkoutsvc.PlaceOrderResult, error) {
	s.got = input
	return s.result, s.err
}

const checkoutBody = `{
	"address": {"fullName": "Asha Rao", "line1": "12 MG Road", "city": "Pune", "state": "MH", "pincode": "411001", "phone": "9876543210"},
	"cart": [{"productId": "5d1b3c0e-8a4f-4e7b-9a53-0f6c9d1b2a11", "quantity": 2, "price": 500, "name": "Vase", "image": "vase.png"}],
	"couponCode": "save20",
	"paymentMethod": "ONLINE",
	"userId": "00000000-0000-0000-0000-000000000001"
}`

func TestCheckoutSuccess(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubCheckoutService{result: &checkoutsvc.PlaceOrderResult{
		OrderID:          orderID,
		PaymentSessionID: "session_abc",
		PaymentMethod:    enums.PaymentMethodOnline,
		PaymentStatus:    enums.PaymentStatusPending,
		Totals: pricing.Breakdown{
			Subtotal: decimal.NewFromInt(1000),
			Discount: decimal.NewFromInt(150),
			Tax:      decimal.NewFromInt(153),
			Shipping: decimal.NewFromInt(49),
			Total:    decimal.NewFromInt(1052),
		},
	}}

	req := authedRequest(http.MethodPost, "/api/v1/checkout", jsonBody(checkoutBody), userID, enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.got.UserID != userID {
		t.Fatalf("user id must come from the token, got %s", svc.got.UserID)
	}
	if len(svc.got.Cart) != 1 || svc.got.Cart[0].Quantity != 2 {
		t.Fatalf("cart not decoded: %+v", svc.got.Cart)
	}
	if svc.got.Address.Pincode != "411001" || svc.got.CouponCode != "save20" {
		t.Fatalf("payload not decoded: %+v", svc.got)
	}

	var body struct {
		OrderID          uuid.UUID `json:"orderId"`
		PaymentSessionID string    `json:"paymentSessionId"`
		PaymentStatus    string    `json:"paymentStatus"`
	}
	decodeSuccess(t, rec, &body)
	if body.OrderID != orderID || body.PaymentSessionID != "session_abc" || body.PaymentStatus != "PENDING" {
		t.Fatalf("unexpected response %+v", body)
	}
}

func TestCheckoutPassesEmailFromToken(t *testing.T) {
	svc := &stubCheckoutService{result: &checkoutsvc.PlaceOrderResult{OrderID: uuid.New()}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", jsonBody(checkoutBody))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, uuid.New(), enums.UserRoleCustomer))

	rec := httptest.NewRecorder()
	middleware.Auth(testJWTConfig, nil)(Checkout(svc, nil)).ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.got.Email != "buyer@example.com" {
		t.Fatalf("expected email from token, got %q", svc.got.Email)
	}
}

func TestCheckoutSurfacesDomainErrorsVerbatim(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{pkgerrors.New(pkgerrors.CodeStockConflict, "Insufficient stock for Vase. Max: 1"), http.StatusConflict, "Insufficient stock for Vase. Max: 1"},
		{pkgerrors.New(pkgerrors.CodeCouponRejected, "This coupon has reached its usage limit"), http.StatusUnprocessableEntity, "This coupon has reached its usage limit"},
		{pkgerrors.New(pkgerrors.CodeValidation, "Invalid pincode"), http.StatusBadRequest, "Invalid pincode"},
		{pkgerrors.New(pkgerrors.CodeGateway, "Failed to initiate online payment. Please try again.").WithDetails(map[string]any{"orderId": "abc"}), http.StatusBadGateway, "Failed to initiate online payment. Please try again."},
	}
	for _, tc := range cases {
		svc := &stubCheckoutService{err: tc.err}
		req := authedRequest(http.MethodPost, "/api/v1/checkout", jsonBody(checkoutBody), uuid.New(), enums.UserRoleCustomer)
		rec := httptest.NewRecorder()
		Checkout(svc, nil).ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("expected %d got %d", tc.status, rec.Code)
		}
		apiErr := decodeError(t, rec)
		if apiErr.Message != tc.msg {
			t.Fatalf("expected message %q got %q", tc.msg, apiErr.Message)
		}
	}
}

func TestCheckoutGatewayFailureCarriesOrderID(t *testing.T) {
	svc := &stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeGateway, "Failed to initiate online payment. Please try again.").
		WithDetails(map[string]any{"orderId": "9b2f"})}
	req := authedRequest(http.MethodPost, "/api/v1/checkout", jsonBody(checkoutBody), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)

	apiErr := decodeError(t, rec)
	details, ok := apiErr.Details.(map[string]any)
	if !ok || details["orderId"] != "9b2f" {
		t.Fatalf("expected orderId in details, got %v", apiErr.Details)
	}
}

func TestCheckoutRejectsAnonymousAndMalformed(t *testing.T) {
	svc := &stubCheckoutService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", jsonBody(checkoutBody))
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = authedRequest(http.MethodPost, "/api/v1/checkout", jsonBody(`{"cart":`), uuid.New(), enums.UserRoleCustomer)
	rec = httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
