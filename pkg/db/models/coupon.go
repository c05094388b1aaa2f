package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// Coupon is a discount rule. Code is stored upper-cased; UsedCount only grows
// and never exceeds UsageLimit when one is set.
type Coupon struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code          string              `gorm:"column:code;not null;uniqueIndex:coupons_code_key"`
	Description   *string             `gorm:"column:description"`
	DiscountType  enums.DiscountType  `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinOrderValue decimal.NullDecimal `gorm:"column:min_order_value;type:numeric(12,2)"`
	MaxDiscount   decimal.NullDecimal `gorm:"column:max_discount;type:numeric(12,2)"`
	UsageLimit    *int                `gorm:"column:usage_limit"`
	UsedCount     int                 `gorm:"column:used_count;not null;default:0"`
	IsActive      bool                `gorm:"column:is_active;not null"`
	ExpiresAt     *time.Time          `gorm:"column:expires_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
