// Package pricing computes order totals and decides coupon eligibility.
package pricing

import (
	"fmt"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Coupon rejection messages. They are shown to customers verbatim.
const (
	MsgInvalidCoupon   = "Invalid coupon code"
	MsgCouponInactive  = "This coupon is no longer active"
	MsgCouponExpired   = "This coupon has expired"
	MsgCouponExhausted = "This coupon has reached its usage limit"
)

var hundred = decimal.NewFromInt(100)

// Line is one priced cart entry.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Breakdown holds whole-currency amounts. Total = Subtotal - Discount + Tax + Shipping.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Evaluator is pure apart from its clock.
type Evaluator struct {
	TaxRate      decimal.Decimal
	ShippingFlat decimal.Decimal
	Now          func() time.Time
}

// NewEvaluator builds an evaluator from pricing configuration.
func NewEvaluator(cfg config.PricingConfig) (*Evaluator, error) {
	tax, shipping, err := cfg.Rates()
	if err != nil {
		return nil, err
	}
	return &Evaluator{TaxRate: tax, ShippingFlat: shipping, Now: time.Now}, nil
}

func (e *Evaluator) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Subtotal sums unit price times quantity.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ValidateCoupon checks eligibility in a fixed order and reports the first
// failing rule. A nil coupon means the code did not resolve.
func (e *Evaluator) ValidateCoupon(c *models.Coupon, subtotal decimal.Decimal) error {
	switch {
	case c == nil:
		return rejected(MsgInvalidCoupon)
	case !c.IsActive:
		return rejected(MsgCouponInactive)
	case c.ExpiresAt != nil && e.now().After(*c.ExpiresAt):
		return rejected(MsgCouponExpired)
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return rejected(MsgCouponExhausted)
	case c.MinOrderValue.Valid && subtotal.LessThan(c.MinOrderValue.Decimal):
		return rejected(fmt.Sprintf("Minimum order value of ₹%s required", c.MinOrderValue.Decimal.String()))
	}
	return nil
}

// Discount computes the reduction for an already validated coupon.
func (e *Evaluator) Discount(c *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch c.DiscountType {
	case enums.DiscountTypePercentage:
		discount = subtotal.Mul(c.DiscountValue).Div(hundred).Round(0)
		if c.MaxDiscount.Valid && c.MaxDiscount.Decimal.IsPositive() {
			discount = decimal.Min(discount, c.MaxDiscount.Decimal)
		}
	case enums.DiscountTypeFixed:
		discount = decimal.Min(c.DiscountValue, subtotal)
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// EvaluateCoupon validates and, on success, returns the discount.
func (e *Evaluator) EvaluateCoupon(c *models.Coupon, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if err := e.ValidateCoupon(c, subtotal); err != nil {
		return decimal.Zero, err
	}
	return e.Discount(c, subtotal), nil
}

// Quote prices lines with an optional coupon. Pass nil when no code was given.
func (e *Evaluator) Quote(lines []Line, coupon *models.Coupon) (Breakdown, error) {
	subtotal := Subtotal(lines)
	discount := decimal.Zero
	if coupon != nil {
		d, err := e.EvaluateCoupon(coupon, subtotal)
		if err != nil {
			return Breakdown{}, err
		}
		discount = d
	}
	return e.Totals(subtotal, discount), nil
}

// Totals applies tax and shipping on top of subtotal and discount.
func (e *Evaluator) Totals(subtotal, discount decimal.Decimal) Breakdown {
	tax := subtotal.Sub(discount).Mul(e.TaxRate).Round(0)
	shipping := e.ShippingFlat
	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Sub(discount).Add(tax).Add(shipping),
	}
}

func rejected(msg string) error {
	return pkgerrors.New(pkgerrors.CodeCouponRejected, msg)
}
