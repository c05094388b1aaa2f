package checkout

import (
	"github.com/angelmondragon/printshop-backend/internal/pricing"
	dbtypes "github.com/angelmondragon/printshop-backend/pkg/db/types"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address is the shipping address as submitted. It is stored as formatted text.
type Address struct {
	FullName string `json:"fullName" validate:"required,min=2"`
	Line1    string `json:"line1" validate:"required,min=5"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city" validate:"required,min=2"`
	State    string `json:"state" validate:"required,min=2"`
	Pincode  string `json:"pincode" validate:"required,pincode"`
	Phone    string `json:"phone" validate:"required,phone"`
}

// CartLine is one submitted cart entry. Price is what the client saw; the
// persisted product price is authoritative.
type CartLine struct {
	ProductID   uuid.UUID           `json:"productId"`
	Quantity    int                 `json:"quantity"`
	Price       decimal.Decimal     `json:"price"`
	CustomInput dbtypes.CustomInput `json:"customInput,omitempty"`
}

// PlaceOrderInput is the checkout request. UserID and Email come from the
// authenticated caller, never from the body.
type PlaceOrderInput struct {
	UserID        uuid.UUID           `json:"-"`
	Email         string              `json:"-"`
	Address       Address             `json:"address"`
	Cart          []CartLine          `json:"cart"`
	CouponCode    string              `json:"couponCode,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod,omitempty"`
}

// PlaceOrderResult is returned once the order is committed. PaymentSessionID
// is empty for COD.
type PlaceOrderResult struct {
	OrderID          uuid.UUID           `json:"orderId"`
	PaymentSessionID string              `json:"paymentSessionId,omitempty"`
	PaymentMethod    enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus    enums.PaymentStatus `json:"paymentStatus"`
	Totals           pricing.Breakdown   `json:"totals"`
}
