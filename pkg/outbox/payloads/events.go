package payloads

import (
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderCreatedEvent is emitted when checkout commits an order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	CouponCode    *string             `json:"coupon_code,omitempty"`
	ItemCount     int                 `json:"item_count"`
}

// PaymentStatusChangedEvent backs both order_paid and payment_failed.
type PaymentStatusChangedEvent struct {
	OrderID           uuid.UUID           `json:"order_id"`
	Previous          enums.PaymentStatus `json:"previous"`
	Current           enums.PaymentStatus `json:"current"`
	ProviderPaymentID string              `json:"provider_payment_id,omitempty"`
	Source            string              `json:"source"`
}

// OrderStatusChangedEvent is emitted on admin fulfillment updates.
type OrderStatusChangedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	Previous enums.OrderStatus `json:"previous"`
	Current  enums.OrderStatus `json:"current"`
}

// OrderDeletedEvent records an admin delete. Stock is not restored.
type OrderDeletedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
}
