package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// Order is created once inside the checkout transaction. The monetary
// breakdown is immutable; only Status, PaymentStatus, PaymentID and
// PaymentSessionID change afterwards.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:Pending"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount         decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null"`
	Tax              decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping         decimal.Decimal     `gorm:"column:shipping;type:numeric(12,2);not null"`
	TotalAmount      decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Address          string              `gorm:"column:address;not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:ONLINE"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:PENDING;index"`
	PaymentSessionID *string             `gorm:"column:payment_session_id"`
	PaymentID        *string             `gorm:"column:payment_id"`
	CouponID         *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	CouponCode       *string             `gorm:"column:coupon_code"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	User             *User               `gorm:"foreignKey:UserID;constraint:false"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ShortID is the customer-facing reference (last 8 characters of the id).
func (o Order) ShortID() string {
	id := o.ID.String()
	return id[len(id)-8:]
}
