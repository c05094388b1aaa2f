package payments

import (
	"context"

	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/google/uuid"
)

// VerifyOutcome is what the return page shows the customer.
type VerifyOutcome string

const (
	VerifyPlaced  VerifyOutcome = "placed"
	VerifySuccess VerifyOutcome = "success"
	VerifyFailed  VerifyOutcome = "failed"
	VerifyPending VerifyOutcome = "pending"
)

// VerifyResult is the poller response.
type VerifyResult struct {
	OrderID       uuid.UUID           `json:"orderId"`
	Outcome       VerifyOutcome       `json:"outcome"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
}

// Verify performs one provider check when the customer returns from the
// payment page. Provider errors are logged and the stored status answers.
func (s *service) Verify(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*VerifyResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	if !actor.CanView(*order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}

	result := &VerifyResult{
		OrderID:       order.ID,
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
	}
	switch {
	case order.PaymentMethod.IsOffline():
		result.Outcome = VerifyPlaced
		return result, nil
	case order.PaymentStatus == enums.PaymentStatusPaid:
		result.Outcome = VerifySuccess
		return result, nil
	case order.PaymentSessionID == nil || *order.PaymentSessionID == "":
		result.Outcome = outcomeFromStatus(order.PaymentStatus)
		return result, nil
	}

	payment, err := s.gateway.FetchLatestPaymentStatus(ctx, order.ID)
	if err != nil {
		s.metrics.GatewayFailure("fetch_payments")
		s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "payment verification failed", err)
		result.Outcome = outcomeFromStatus(order.PaymentStatus)
		return result, nil
	}

	outcome := outcomeFromGateway(payment.Status)
	if outcome == OutcomePending {
		result.Outcome = VerifyPending
		return result, nil
	}
	transition, err := s.ApplyPaymentResult(ctx, order.ID, PaymentResult{
		Outcome:           outcome,
		ProviderPaymentID: payment.ProviderPaymentID,
		Source:            SourcePoller,
	})
	if err != nil {
		return nil, err
	}
	result.PaymentStatus = transition.Current
	result.Outcome = outcomeFromStatus(transition.Current)
	return result, nil
}

// Reconcile re-checks a stale PENDING order against the provider.
func (s *service) Reconcile(ctx context.Context, order models.Order) (Transition, error) {
	if order.PaymentMethod.IsOffline() || order.PaymentStatus == enums.PaymentStatusPaid {
		return Transition{OrderID: order.ID, Previous: order.PaymentStatus, Current: order.PaymentStatus}, nil
	}
	payment, err := s.gateway.FetchLatestPaymentStatus(ctx, order.ID)
	if err != nil {
		s.metrics.GatewayFailure("fetch_payments")
		return Transition{}, err
	}
	return s.ApplyPaymentResult(ctx, order.ID, PaymentResult{
		Outcome:           outcomeFromGateway(payment.Status),
		ProviderPaymentID: payment.ProviderPaymentID,
		Source:            SourceReconciler,
	})
}

func outcomeFromGateway(status GatewayStatus) Outcome {
	switch status {
	case GatewaySuccess:
		return OutcomePaid
	case GatewayFailed, GatewayCancelled:
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

func outcomeFromStatus(status enums.PaymentStatus) VerifyOutcome {
	switch status {
	case enums.PaymentStatusPaid:
		return VerifySuccess
	case enums.PaymentStatusFailed:
		return VerifyFailed
	default:
		return VerifyPending
	}
}
