package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/printshop-backend/internal/payments"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"go.uber.org/multierr"
)

const (
	defaultPendingAge   = 30 * time.Minute
	defaultPendingBatch = 100
)

type pendingOrderFinder interface {
	FindPendingOnlineBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, order models.Order) (payments.Transition, error)
}

// PendingPaymentJobParams configures the stale payment reconciler.
type PendingPaymentJobParams struct {
	Logger    *logger.Logger
	Orders    pendingOrderFinder
	Payments  reconciler
	MinAge    time.Duration
	BatchSize int
}

// NewPendingPaymentJob re-checks ONLINE orders still PENDING after MinAge.
// It covers customers who never returned from the payment page and webhooks
// that never arrived.
func NewPendingPaymentJob(params PendingPaymentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	age := params.MinAge
	if age <= 0 {
		age = defaultPendingAge
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultPendingBatch
	}
	return &pendingPaymentJob{
		logg:     params.Logger,
		orders:   params.Orders,
		payments: params.Payments,
		age:      age,
		batch:    batch,
		now:      time.Now,
	}, nil
}

type pendingPaymentJob struct {
	logg     *logger.Logger
	orders   pendingOrderFinder
	payments reconciler
	age      time.Duration
	batch    int
	now      func() time.Time
}

func (j *pendingPaymentJob) Name() string { return "pending_payment_reconcile" }

// Run checks one batch. A provider error on one order does not stop the rest.
func (j *pendingPaymentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.age)
	pending, err := j.orders.FindPendingOnlineBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query pending orders: %w", err)
	}

	var (
		errs    error
		changed int
	)
	for _, order := range pending {
		transition, err := j.payments.Reconcile(ctx, order)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		if transition.Changed {
			changed++
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"checked": len(pending),
		"changed": changed,
		"failed":  len(multierr.Errors(errs)),
	}), "pending payment reconcile complete")
	return errs
}
