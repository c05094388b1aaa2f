package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/printshop-backend/internal/coupons"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/pagination"
	"github.com/angelmondragon/printshop-backend/pkg/types"
)

type stubCouponService struct {
	created   coupons.CreateInput
	activeID  uuid.UUID
	active    bool
	deletedID uuid.UUID
	code      string
	subtotal  decimal.Decimal
	coupon    *coupons.Coupon
	preview   *coupons.Preview
	err       error
}

func (s *stubCouponService) Create(ctx context.Context, input coupons.CreateInput) (*coupons.Coupon, error) {
	s.created = input
	return s.coupon, s.err
}

func (s *stubCouponService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*coupons.Coupon, error) {
	s.activeID, s.active = id, active
	return s.coupon, s.err
}

func (s *stubCouponService) Delete(ctx context.Context, id uuid.UUID) error {
	s.deletedID = id
	return s.err
}

func (s *stubCouponService) List(ctx context.Context, params pagination.Params) (*types.Page[coupons.Coupon], error) {
	return &types.Page[coupons.Coupon]{Items: []coupons.Coupon{}}, s.err
}

func (s *stubCouponService) Preview(ctx context.Context, code string, subtotal decimal.Decimal) (*coupons.Preview, error) {
	s.code, s.subtotal = code, subtotal
	return s.preview, s.err
}

func TestValidateCoupon(t *testing.T) {
	svc := &stubCouponService{preview: &coupons.Preview{
		Code:         "SAVE20",
		Discount:     decimal.NewFromInt(150),
		DiscountType: enums.DiscountTypePercentage,
	}}
	req := authedRequest(http.MethodPost, "/api/v1/coupons/validate", jsonBody(`{"code":"save20","subtotal":1000}`), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	ValidateCoupon(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.code != "save20" || !svc.subtotal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected preview args %q %s", svc.code, svc.subtotal)
	}
	var preview coupons.Preview
	decodeSuccess(t, rec, &preview)
	if !preview.Discount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected discount %s", preview.Discount)
	}
}

func TestValidateCouponRejection(t *testing.T) {
	svc := &stubCouponService{err: pkgerrors.New(pkgerrors.CodeCouponRejected, "Minimum order value of ₹500 required")}
	req := authedRequest(http.MethodPost, "/api/v1/coupons/validate", jsonBody(`{"code":"big","subtotal":100}`), uuid.New(), enums.UserRoleCustomer)
	rec := httptest.NewRecorder()
	ValidateCoupon(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Message != "Minimum order value of ₹500 required" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}

	rec = httptest.NewRecorder()
	req = authedRequest(http.MethodPost, "/api/v1/coupons/validate", jsonBody(`{"subtotal":100}`), uuid.New(), enums.UserRoleCustomer)
	ValidateCoupon(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing code, got %d", rec.Code)
	}
}

func TestAdminCreateCoupon(t *testing.T) {
	svc := &stubCouponService{coupon: &coupons.Coupon{ID: uuid.New(), Code: "WELCOME"}}
	body := `{"code":"welcome","discountType":"FIXED","discountValue":"100","usageLimit":5}`
	req := authedRequest(http.MethodPost, "/api/v1/admin/coupons", jsonBody(body), uuid.New(), enums.UserRoleAdmin)
	rec := httptest.NewRecorder()
	AdminCreateCoupon(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.created.Code != "welcome" || svc.created.UsageLimit == nil || *svc.created.UsageLimit != 5 {
		t.Fatalf("payload not decoded: %+v", svc.created)
	}
	if svc.created.DiscountValue == nil || !svc.created.DiscountValue.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("discount value not decoded: %v", svc.created.DiscountValue)
	}
}

func TestAdminCreateCouponDuplicate(t *testing.T) {
	svc := &stubCouponService{err: pkgerrors.New(pkgerrors.CodeConflict, "Coupon code already exists")}
	req := authedRequest(http.MethodPost, "/api/v1/admin/coupons", jsonBody(`{"code":"x","discountType":"FIXED","discountValue":1}`), uuid.New(), enums.UserRoleAdmin)
	rec := httptest.NewRecorder()
	AdminCreateCoupon(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if apiErr := decodeError(t, rec); apiErr.Message != "Coupon code already exists" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestAdminToggleAndDeleteCoupon(t *testing.T) {
	couponID := uuid.New()
	svc := &stubCouponService{coupon: &coupons.Coupon{ID: couponID}}

	req := authedRequest(http.MethodPatch, "/", jsonBody(`{"isActive":false}`), uuid.New(), enums.UserRoleAdmin)
	req = withURLParam(req, "couponId", couponID.String())
	rec := httptest.NewRecorder()
	AdminToggleCoupon(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.activeID != couponID || svc.active {
		t.Fatalf("unexpected toggle %s %v", svc.activeID, svc.active)
	}

	req = authedRequest(http.MethodPatch, "/", jsonBody(`{}`), uuid.New(), enums.UserRoleAdmin)
	req = withURLParam(req, "couponId", couponID.String())
	rec = httptest.NewRecorder()
	AdminToggleCoupon(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without isActive, got %d", rec.Code)
	}

	req = authedRequest(http.MethodDelete, "/", nil, uuid.New(), enums.UserRoleAdmin)
	req = withURLParam(req, "couponId", couponID.String())
	rec = httptest.NewRecorder()
	AdminDeleteCoupon(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || svc.deletedID != couponID {
		t.Fatalf("delete failed: %d %s", rec.Code, svc.deletedID)
	}
}
