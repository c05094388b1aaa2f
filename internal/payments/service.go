package payments

import (
	"context"
	"fmt"

	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/repo"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/angelmondragon/printshop-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outcome is what an observer learned about a payment.
type Outcome string

const (
	OutcomePaid    Outcome = "paid"
	OutcomeFailed  Outcome = "failed"
	OutcomePending Outcome = "pending"
)

// Source names the observer that reported a payment result.
type Source string

const (
	SourceWebhook    Source = "webhook"
	SourcePoller     Source = "poller"
	SourceReconciler Source = "reconciler"
)

const msgOrderNotFound = "Order not found"

// PaymentResult is one observation of the provider's payment state.
type PaymentResult struct {
	Outcome           Outcome
	ProviderPaymentID string
	Source            Source
}

// Transition reports the payment status before and after applying a result.
type Transition struct {
	OrderID  uuid.UUID
	Previous enums.PaymentStatus
	Current  enums.PaymentStatus
	Changed  bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns every payment status write. Webhooks, the return-page poller
// and the reconciler all converge on ApplyPaymentResult.
type Service interface {
	ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, result PaymentResult) (Transition, error)
	HandleEvent(ctx context.Context, event WebhookEvent) (WebhookResult, error)
	Verify(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*VerifyResult, error)
	Reconcile(ctx context.Context, order models.Order) (Transition, error)
}

type service struct {
	orders  orders.Repository
	tx      txRunner
	outbox  outboxPublisher
	gateway Gateway
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
}

// NewService wires the payment state machine. A nil metrics recorder is a no-op.
func NewService(ordersRepo orders.Repository, tx txRunner, publisher outboxPublisher, gateway Gateway, m *metrics.PaymentMetrics, logg *logger.Logger) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if m == nil {
		m = metrics.NewPaymentMetrics(nil)
	}
	return &service{
		orders:  ordersRepo,
		tx:      tx,
		outbox:  publisher,
		gateway: gateway,
		metrics: m,
		logg:    logg,
	}, nil
}

// ApplyPaymentResult moves payment_status forward with conditional updates.
// PAID is sticky, FAILED only replaces PENDING, and a late success still
// turns FAILED into PAID. Replays are no-ops.
func (s *service) ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, result PaymentResult) (Transition, error) {
	transition := Transition{OrderID: orderID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txOrders := s.orders.WithTx(tx)
		order, err := txOrders.FindByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		transition.Previous = order.PaymentStatus
		transition.Current = order.PaymentStatus

		var (
			changed bool
			target  enums.PaymentStatus
			event   enums.OutboxEventType
		)
		switch result.Outcome {
		case OutcomePaid:
			target, event = enums.PaymentStatusPaid, enums.EventOrderPaid
			changed, err = txOrders.MarkPaid(ctx, orderID, result.ProviderPaymentID)
		case OutcomeFailed:
			target, event = enums.PaymentStatusFailed, enums.EventPaymentFailed
			changed, err = txOrders.MarkFailed(ctx, orderID)
		case OutcomePending:
			return nil
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment outcome %q", result.Outcome))
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment status")
		}
		if !changed {
			// Someone else may have moved the row since it was read.
			reloaded, err := txOrders.FindByID(ctx, orderID)
			if err != nil {
				return notFoundOr(err, "reload order")
			}
			transition.Current = reloaded.PaymentStatus
			return nil
		}

		transition.Current = target
		transition.Changed = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     event,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data: payloads.PaymentStatusChangedEvent{
				OrderID:           orderID,
				Previous:          transition.Previous,
				Current:           target,
				ProviderPaymentID: result.ProviderPaymentID,
				Source:            string(result.Source),
			},
		})
	})
	if err != nil {
		return Transition{}, err
	}

	if transition.Changed {
		s.metrics.Transition(transition.Current.String(), string(result.Source))
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":       orderID.String(),
			"previous":       transition.Previous.String(),
			"payment_status": transition.Current.String(),
			"source":         string(result.Source),
		})
		s.logg.Info(logCtx, "payment status applied")
	}
	return transition, nil
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
