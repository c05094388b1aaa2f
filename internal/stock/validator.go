// Package stock checks requested quantities against persisted inventory.
package stock

import (
	"fmt"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/google/uuid"
)

// Request is one cart line's demand.
type Request struct {
	ProductID uuid.UUID
	Quantity  int
}

// Validate returns the first failing request in order, or nil when every
// product exists with enough stock.
func Validate(requests []Request, products map[uuid.UUID]models.Product) error {
	for _, req := range requests {
		product, ok := products[req.ProductID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Product not found: %s", req.ProductID))
		}
		if product.Stock < req.Quantity {
			return InsufficientStock(product.Name, product.Stock)
		}
	}
	return nil
}

// InsufficientStock builds the customer-facing conflict error.
func InsufficientStock(name string, available int) error {
	if available < 0 {
		available = 0
	}
	return pkgerrors.New(pkgerrors.CodeStockConflict, fmt.Sprintf("Insufficient stock for %s. Max: %d", name, available)).
		WithDetails(map[string]any{"product": name, "available": available})
}

// Aggregate merges requests for the same product, keeping first-seen order.
// Two lines of one product must be checked against their combined quantity.
func Aggregate(requests []Request) []Request {
	index := make(map[uuid.UUID]int, len(requests))
	out := make([]Request, 0, len(requests))
	for _, req := range requests {
		if i, ok := index[req.ProductID]; ok {
			out[i].Quantity += req.Quantity
			continue
		}
		index[req.ProductID] = len(out)
		out = append(out, req)
	}
	return out
}
