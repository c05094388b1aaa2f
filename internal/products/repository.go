package products

import (
	"context"
	"fmt"

	"github.com/angelmondragon/printshop-backend/internal/repo"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads products and guards stock mutations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a product repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// FindByIDs loads the products keyed by id. Inside a Postgres transaction the
// rows stay locked until it ends; id order keeps concurrent carts from
// deadlocking on each other.
func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := r.DB(ctx).Where("id IN ?", ids)
	if query.Dialector != nil && query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.Product
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// DecrementStock subtracts qty only when enough stock remains. It reports
// false when the guard rejected the update.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("decrement quantity must be positive")
	}
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, fmt.Errorf("decrement stock: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
