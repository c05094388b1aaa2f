package coupons

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/internal/repo"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists coupons and guards their usage counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, params pagination.Params) ([]models.Coupon, string, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a coupon repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

// NormalizeCode trims and upper-cases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// FindByCode returns nil, nil when no coupon carries code.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}
	var coupon models.Coupon
	if err := r.DB(ctx).Where("code = ?", normalized).First(&coupon).Error; err != nil {
		if repo.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find coupon by code: %w", err)
	}
	return &coupon, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.DB(ctx).Where("id = ?", id).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) error {
	if coupon == nil {
		return fmt.Errorf("coupon required")
	}
	coupon.Code = NormalizeCode(coupon.Code)
	return r.DB(ctx).Create(coupon).Error
}

func (r *repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.DB(ctx).Model(&models.Coupon{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete reports false when no row matched. Orders keep their coupon_code
// snapshot; the foreign key nulls coupon_id.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Coupon{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.Coupon, string, error) {
	query, limit, err := pagination.Apply(r.DB(ctx).Model(&models.Coupon{}), params, "")
	if err != nil {
		return nil, "", err
	}
	var rows []models.Coupon
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", fmt.Errorf("list coupons: %w", err)
	}
	rows, next := pagination.Trim(rows, limit, func(c models.Coupon) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	return rows, next, nil
}

// IncrementUsage bumps used_count only while the coupon is active and below
// its limit. It reports false when the guard rejected the update.
func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND is_active = ? AND (usage_limit IS NULL OR used_count < usage_limit)", id, true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, fmt.Errorf("increment coupon usage: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
