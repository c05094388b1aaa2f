package orders

import (
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/printshop-backend/pkg/db/types"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the actor may run admin operations.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// CanView reports whether the actor owns the order or is an admin.
func (a Actor) CanView(order models.Order) bool {
	return a.IsAdmin() || (a.UserID != uuid.Nil && a.UserID == order.UserID)
}

// UpdateStatusResult reports the committed status and whether the customer
// email went out. A failed email never undoes the status change.
type UpdateStatusResult struct {
	OrderID  uuid.UUID         `json:"orderId"`
	Status   enums.OrderStatus `json:"status"`
	Notified bool              `json:"notified"`
	Warning  string            `json:"warning,omitempty"`
}

// OrderItem is the API view of a line.
type OrderItem struct {
	ID          uuid.UUID           `json:"id"`
	ProductID   uuid.UUID           `json:"productId"`
	ProductName string              `json:"productName"`
	Quantity    int                 `json:"quantity"`
	Price       decimal.Decimal     `json:"price"`
	CustomInput dbtypes.CustomInput `json:"customInput,omitempty"`
}

// Customer is the owner summary shown to admins.
type Customer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Order is the API view of an order.
type Order struct {
	ID            uuid.UUID           `json:"id"`
	ShortID       string              `json:"shortId"`
	UserID        uuid.UUID           `json:"userId"`
	Customer      *Customer           `json:"customer,omitempty"`
	Status        enums.OrderStatus   `json:"status"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"discount"`
	Tax           decimal.Decimal     `json:"tax"`
	Shipping      decimal.Decimal     `json:"shipping"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Address       string              `json:"address"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	PaymentID     *string             `json:"paymentId,omitempty"`
	CouponCode    *string             `json:"couponCode,omitempty"`
	Items         []OrderItem         `json:"items"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// ToDTO converts a persisted order into its API view.
func ToDTO(o models.Order) Order {
	out := Order{
		ID:            o.ID,
		ShortID:       o.ShortID(),
		UserID:        o.UserID,
		Status:        o.Status,
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		Tax:           o.Tax,
		Shipping:      o.Shipping,
		TotalAmount:   o.TotalAmount,
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		PaymentID:     o.PaymentID,
		CouponCode:    o.CouponCode,
		Items:         make([]OrderItem, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt,
	}
	if o.User != nil {
		out.Customer = &Customer{ID: o.User.ID, Name: o.User.Name, Email: o.User.Email}
	}
	for _, item := range o.Items {
		out.Items = append(out.Items, OrderItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			CustomInput: item.CustomInput,
		})
	}
	return out
}
