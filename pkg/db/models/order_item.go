package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/printshop-backend/pkg/db/types"
)

// OrderItem snapshots the unit price and product name at order time.
// ProductID is a soft reference and may outlive the product.
type OrderItem struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ProductName string              `gorm:"column:product_name;not null"`
	Quantity    int                 `gorm:"column:quantity;not null;check:quantity > 0"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	CustomInput dbtypes.CustomInput `gorm:"column:custom_input;type:jsonb;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
