package coupons

import (
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInput is the admin payload for a new coupon.
type CreateInput struct {
	Code          string           `json:"code"`
	Description   *string          `json:"description"`
	DiscountType  string           `json:"discountType"`
	DiscountValue *decimal.Decimal `json:"discountValue"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount"`
	UsageLimit    *int             `json:"usageLimit"`
	IsActive      *bool            `json:"isActive"`
	ExpiresAt     *time.Time       `json:"expiresAt"`
}

// Coupon is the API view of a coupon.
type Coupon struct {
	ID            uuid.UUID          `json:"id"`
	Code          string             `json:"code"`
	Description   *string            `json:"description,omitempty"`
	DiscountType  enums.DiscountType `json:"discountType"`
	DiscountValue decimal.Decimal    `json:"discountValue"`
	MinOrderValue *decimal.Decimal   `json:"minOrderValue,omitempty"`
	MaxDiscount   *decimal.Decimal   `json:"maxDiscount,omitempty"`
	UsageLimit    *int               `json:"usageLimit,omitempty"`
	UsedCount     int                `json:"usedCount"`
	IsActive      bool               `json:"isActive"`
	ExpiresAt     *time.Time         `json:"expiresAt,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// Preview is the customer-facing result of validating a code.
type Preview struct {
	Code         string             `json:"code"`
	Discount     decimal.Decimal    `json:"discount"`
	DiscountType enums.DiscountType `json:"discountType"`
}

func toDTO(c models.Coupon) Coupon {
	out := Coupon{
		ID:            c.ID,
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		UsageLimit:    c.UsageLimit,
		UsedCount:     c.UsedCount,
		IsActive:      c.IsActive,
		ExpiresAt:     c.ExpiresAt,
		CreatedAt:     c.CreatedAt,
	}
	if c.MinOrderValue.Valid {
		v := c.MinOrderValue.Decimal
		out.MinOrderValue = &v
	}
	if c.MaxDiscount.Valid {
		v := c.MaxDiscount.Decimal
		out.MaxDiscount = &v
	}
	return out
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}
