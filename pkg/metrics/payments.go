package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "printshop"

// PaymentMetrics tracks checkout outcomes and payment status transitions.
type PaymentMetrics struct {
	ordersPlaced     *prometheus.CounterVec
	checkoutRejected *prometheus.CounterVec
	gatewayFailures  *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	webhooks         *prometheus.CounterVec
	notifications    *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on reg. A nil registerer
// yields a no-op recorder.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	m := &PaymentMetrics{
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "orders_placed_total",
			Help:      "Orders committed by checkout, by payment method.",
		}, []string{"method"}),
		checkoutRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "rejected_total",
			Help:      "Checkouts rejected before commit, by error code.",
		}, []string{"code"}),
		gatewayFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "failures_total",
			Help:      "Payment gateway call failures, by operation.",
		}, []string{"operation"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "status_transitions_total",
			Help:      "Applied payment status transitions, by resulting status and source.",
		}, []string{"status", "source"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "webhooks_total",
			Help:      "Gateway webhooks received, by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "notifications_total",
			Help:      "Order status notifications, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.ordersPlaced, m.checkoutRejected, m.gatewayFailures, m.transitions, m.webhooks, m.notifications)
	return m
}

func (m *PaymentMetrics) OrderPlaced(method string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(method)).Inc()
}

func (m *PaymentMetrics) CheckoutRejected(code string) {
	if m == nil || m.checkoutRejected == nil {
		return
	}
	m.checkoutRejected.WithLabelValues(normalizeLabel(code)).Inc()
}

func (m *PaymentMetrics) GatewayFailure(operation string) {
	if m == nil || m.gatewayFailures == nil {
		return
	}
	m.gatewayFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *PaymentMetrics) Transition(status, source string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status), normalizeLabel(source)).Inc()
}

// Webhook records one of: processed, duplicate, ignored, invalid_signature, error.
func (m *PaymentMetrics) Webhook(result string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(result)).Inc()
}

// Notification records one of: sent, skipped, failed.
func (m *PaymentMetrics) Notification(result string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(result)).Inc()
}
