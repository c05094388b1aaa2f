package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/printshop-backend/internal/repo"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit("Items", "User").Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", orderItemsByCreation).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", orderItemsByCreation).
		Preload("User").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return r.list(ctx, r.DB(ctx).Model(&models.Order{}).Where("user_id = ?", userID), params)
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, string, error) {
	query := r.DB(ctx).Model(&models.Order{}).Preload("User")
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	return r.list(ctx, query, params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Order, string, error) {
	query, limit, err := pagination.Apply(query.Preload("Items", orderItemsByCreation), params, "")
	if err != nil {
		return nil, "", err
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}
	rows, next := pagination.Trim(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return rows, next, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	res := r.DB(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.DB(ctx).Model(&models.Order{}).Where("id = ?", id).Update("payment_session_id", sessionID).Error
}

// MarkPaid moves any non-paid order to PAID. A FAILED order may still be
// paid by a late success.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, paymentID string) (bool, error) {
	updates := map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"updated_at":     time.Now().UTC(),
	}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, enums.PaymentStatusPaid).
		UpdateColumns(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkFailed only ever moves PENDING to FAILED.
func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		UpdateColumns(map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes the order and its items. Stock and coupon usage stay as they are.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.DB(ctx).Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return false, err
	}
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindPendingOnlineBefore returns unsettled gateway orders older than cutoff,
// oldest first.
func (r *repository) FindPendingOnlineBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	query := r.DB(ctx).
		Where("payment_status = ?", enums.PaymentStatusPending).
		Where("payment_method = ?", enums.PaymentMethodOnline).
		Where("payment_session_id IS NOT NULL").
		Where("created_at < ?", cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func orderItemsByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
