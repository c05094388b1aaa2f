package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their items.
// Payment status writes are conditional; the bool results report whether the
// guard let the update through.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListAll(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error
	MarkPaid(ctx context.Context, id uuid.UUID, paymentID string) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindPendingOnlineBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// ListFilters narrows the admin order list.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// StatusNotifier tells the customer about a fulfillment status change. The
// order carries its items and user.
type StatusNotifier interface {
	OrderStatusChanged(ctx context.Context, order models.Order, status enums.OrderStatus) error
}
