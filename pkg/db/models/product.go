package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/printshop-backend/pkg/db/types"
)

// Product is the sellable item. Stock is guarded by CHECK (stock >= 0) and is
// only ever decremented conditionally inside the checkout transaction.
type Product struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name         string               `gorm:"column:name;not null"`
	Description  *string              `gorm:"column:description"`
	Price        decimal.Decimal      `gorm:"column:price;type:numeric(12,2);not null"`
	Stock        int                  `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	CustomFields dbtypes.CustomFields `gorm:"column:custom_fields;type:jsonb;not null"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
