package coupons

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/internal/pricing"
	"github.com/angelmondragon/printshop-backend/internal/repo"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/pagination"
	"github.com/angelmondragon/printshop-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgRequiredFields = "Code, discount type, and discount value are required"
	msgDuplicateCode  = "Coupon code already exists"
	msgNotFound       = "Coupon not found"
)

var hundred = decimal.NewFromInt(100)

// Service covers admin coupon management and the customer preview.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*Coupon, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) (*types.Page[Coupon], error)
	Preview(ctx context.Context, code string, subtotal decimal.Decimal) (*Preview, error)
}

type service struct {
	repo      Repository
	evaluator *pricing.Evaluator
	logg      *logger.Logger
}

// NewService builds the coupon service.
func NewService(repo Repository, evaluator *pricing.Evaluator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("pricing evaluator required")
	}
	return &service{repo: repo, evaluator: evaluator, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Coupon, error) {
	code := NormalizeCode(input.Code)
	if code == "" || strings.TrimSpace(input.DiscountType) == "" || input.DiscountValue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgRequiredFields)
	}
	discountType, err := enums.ParseDiscountType(input.DiscountType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount type must be PERCENTAGE or FIXED")
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if discountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.UsageLimit != nil && *input.UsageLimit < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must not be negative")
	}
	for name, v := range map[string]*decimal.Decimal{"minimum order value": input.MinOrderValue, "max discount": input.MaxDiscount} {
		if v != nil && v.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must not be negative")
		}
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	coupon := &models.Coupon{
		Code:          code,
		Description:   input.Description,
		DiscountType:  discountType,
		DiscountValue: *input.DiscountValue,
		MinOrderValue: nullDecimal(input.MinOrderValue),
		MaxDiscount:   nullDecimal(input.MaxDiscount),
		UsageLimit:    input.UsageLimit,
		IsActive:      active,
		ExpiresAt:     input.ExpiresAt,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgDuplicateCode)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create coupon")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "coupon_code", coupon.Code), "coupon created")
	}
	out := toDTO(*coupon)
	return &out, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Coupon, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggle coupon")
	}
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload coupon")
	}
	out := toDTO(*coupon)
	return &out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete coupon")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*types.Page[Coupon], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list coupons")
	}
	items := make([]Coupon, 0, len(rows))
	for _, row := range rows {
		items = append(items, toDTO(row))
	}
	return &types.Page[Coupon]{Items: items, NextCursor: next}, nil
}

// Preview runs the same eligibility checks as checkout without touching usage.
func (s *service) Preview(ctx context.Context, code string, subtotal decimal.Decimal) (*Preview, error) {
	if NormalizeCode(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative")
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load coupon")
	}
	discount, err := s.evaluator.EvaluateCoupon(coupon, subtotal)
	if err != nil {
		return nil, err
	}
	return &Preview{Code: coupon.Code, Discount: discount, DiscountType: coupon.DiscountType}, nil
}
