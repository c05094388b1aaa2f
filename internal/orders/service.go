package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/printshop-backend/internal/repo"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/printshop-backend/pkg/pagination"
	"github.com/angelmondragon/printshop-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgUnauthorized     = "Unauthorized"
	msgOrderNotFound    = "Order not found"
	msgInvalidStatus    = "Invalid status"
	msgNotificationWarn = "Status updated but the customer email could not be sent"
	notificationSent    = "sent"
	notificationFailed  = "failed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines admin and customer order operations outside checkout.
type Service interface {
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, status string) (*UpdateStatusResult, error)
	Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*Order, error)
	ListForUser(ctx context.Context, actor Actor, params pagination.Params) (*types.Page[Order], error)
	ListAll(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*types.Page[Order], error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier StatusNotifier
	metrics  *metrics.PaymentMetrics
	logg     *logger.Logger
}

// NewService builds the order service. A nil metrics recorder is a no-op.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, notifier StatusNotifier, m *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("status notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if m == nil {
		m = metrics.NewPaymentMetrics(nil)
	}
	return &service{
		repo:     repo,
		tx:       tx,
		outbox:   outbox,
		notifier: notifier,
		metrics:  m,
		logg:     logg,
	}, nil
}

// UpdateStatus commits the new fulfillment status, then notifies the
// customer exactly once. Notification failure is reported, not returned.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, raw string) (*UpdateStatusResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgUnauthorized)
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidStatus)
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.FindDetail(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		previous := current.Status
		if err := txRepo.UpdateStatus(ctx, orderID, status); err != nil {
			return notFoundOr(err, "update order status")
		}
		current.Status = status
		order = current
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:  orderID,
				Previous: previous,
				Current:  status,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"status":   status.String(),
	})
	s.logg.Info(logCtx, "order status updated")

	result := &UpdateStatusResult{OrderID: orderID, Status: status, Notified: true}
	if err := s.notifier.OrderStatusChanged(ctx, *order, status); err != nil {
		s.logg.Error(logCtx, "order status notification failed", err)
		s.metrics.Notification(notificationFailed)
		result.Notified = false
		result.Warning = msgNotificationWarn
		return result, nil
	}
	s.metrics.Notification(notificationSent)
	return result, nil
}

// Delete removes the order and its items without restoring stock or coupon usage.
func (s *service) Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	if !actor.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgUnauthorized)
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
			Data:          payloads.OrderDeletedEvent{OrderID: orderID},
		})
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order deleted")
	return nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*Order, error) {
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	if !actor.CanView(*order) {
		// Hide existence from other customers.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	out := ToDTO(*order)
	return &out, nil
}

func (s *service) ListForUser(ctx context.Context, actor Actor, params pagination.Params) (*types.Page[Order], error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListByUser(ctx, actor.UserID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return toPage(rows, next), nil
}

func (s *service) ListAll(ctx context.Context, actor Actor, params pagination.Params, filters ListFilters) (*types.Page[Order], error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgUnauthorized)
	}
	if err := validateCursor(params); err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return toPage(rows, next), nil
}

func validateCursor(params pagination.Params) error {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	return nil
}

func toPage(rows []models.Order, next string) *types.Page[Order] {
	items := make([]Order, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToDTO(row))
	}
	return &types.Page[Order]{Items: items, NextCursor: next}
}

func notFoundOr(err error, msg string) error {
	if repo.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
