package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/cashfree"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
	"github.com/google/uuid"
)

// Provider webhook types the core reacts to.
const (
	EventPaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"
	EventPaymentFailed  = "PAYMENT_FAILED_WEBHOOK"
)

// WebhookResult classifies a delivery for metrics and logs.
type WebhookResult string

const (
	WebhookProcessed WebhookResult = "processed"
	WebhookDuplicate WebhookResult = "duplicate"
	WebhookIgnored   WebhookResult = "ignored"
)

const (
	webhookScope            = "cashfree_webhook"
	webhookResultInvalidSig = "invalid_signature"
	webhookResultError      = "error"
)

// WebhookEvent is the part of a provider notification the core needs.
type WebhookEvent struct {
	Type              string
	OrderID           string
	PaymentStatus     string
	ProviderPaymentID string
}

// DedupKey identifies a delivery across provider retries.
func (e WebhookEvent) DedupKey() string {
	return strings.Join([]string{e.Type, e.OrderID, e.ProviderPaymentID}, ":")
}

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			OrderID       string              `json:"order_id"`
			PaymentStatus string              `json:"payment_status"`
			CFPaymentID   cashfree.FlexibleID `json:"cf_payment_id"`
		} `json:"payment"`
	} `json:"data"`
}

// ParseWebhook decodes a verified body.
func ParseWebhook(body []byte) (WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}
	if strings.TrimSpace(payload.Type) == "" {
		return WebhookEvent{}, pkgerrors.New(pkgerrors.CodeValidation, "webhook type is required")
	}
	orderID := payload.Data.Payment.OrderID
	if orderID == "" {
		orderID = payload.Data.Order.OrderID
	}
	return WebhookEvent{
		Type:              payload.Type,
		OrderID:           strings.TrimSpace(orderID),
		PaymentStatus:     strings.ToUpper(strings.TrimSpace(payload.Data.Payment.PaymentStatus)),
		ProviderPaymentID: payload.Data.Payment.CFPaymentID.String(),
	}, nil
}

// HandleEvent maps a provider notification onto ApplyPaymentResult.
func (s *service) HandleEvent(ctx context.Context, event WebhookEvent) (WebhookResult, error) {
	var outcome Outcome
	switch {
	case event.Type == EventPaymentSuccess && event.PaymentStatus == cashfree.PaymentStatusSuccess:
		outcome = OutcomePaid
	case event.Type == EventPaymentFailed:
		outcome = OutcomeFailed
	default:
		s.logg.Info(s.logg.WithField(ctx, "webhook_type", event.Type), "webhook ignored")
		return WebhookIgnored, nil
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, msgOrderNotFound)
	}
	if _, err := s.ApplyPaymentResult(ctx, orderID, PaymentResult{
		Outcome:           outcome,
		ProviderPaymentID: event.ProviderPaymentID,
		Source:            SourceWebhook,
	}); err != nil {
		return "", err
	}
	return WebhookProcessed, nil
}

type idempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

type eventHandler interface {
	HandleEvent(ctx context.Context, event WebhookEvent) (WebhookResult, error)
}

// WebhookIngestor verifies, dedupes and dispatches raw provider webhooks.
type WebhookIngestor struct {
	secret  string
	handler eventHandler
	store   idempotencyStore
	ttl     time.Duration
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
}

// NewWebhookIngestor builds an ingestor. A nil store disables deduplication;
// the conditional updates still make replays harmless.
func NewWebhookIngestor(secret string, handler eventHandler, store idempotencyStore, ttl time.Duration, m *metrics.PaymentMetrics, logg *logger.Logger) (*WebhookIngestor, error) {
	if handler == nil {
		return nil, fmt.Errorf("webhook handler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if m == nil {
		m = metrics.NewPaymentMetrics(nil)
	}
	return &WebhookIngestor{
		secret:  secret,
		handler: handler,
		store:   store,
		ttl:     ttl,
		metrics: m,
		logg:    logg,
	}, nil
}

// Ingest checks the signature before looking at the body at all.
func (w *WebhookIngestor) Ingest(ctx context.Context, body []byte, signature, timestamp string) (WebhookResult, error) {
	if !cashfree.VerifySignature(w.secret, timestamp, body, signature) {
		w.metrics.Webhook(webhookResultInvalidSig)
		w.logg.Warn(ctx, "webhook signature rejected")
		return "", pkgerrors.New(pkgerrors.CodeInvalidSignature, "Invalid signature")
	}

	event, err := ParseWebhook(body)
	if err != nil {
		w.metrics.Webhook(webhookResultError)
		return "", err
	}
	ctx = w.logg.WithFields(ctx, map[string]any{
		"webhook_type": event.Type,
		"order_id":     event.OrderID,
	})

	key, claimed := w.claim(ctx, event)
	if !claimed {
		w.metrics.Webhook(string(WebhookDuplicate))
		w.logg.Info(ctx, "duplicate webhook skipped")
		return WebhookDuplicate, nil
	}

	result, err := w.handler.HandleEvent(ctx, event)
	if err != nil {
		w.release(ctx, key)
		w.metrics.Webhook(webhookResultError)
		return "", err
	}
	w.metrics.Webhook(string(result))
	return result, nil
}

// claim reports false only for a confirmed duplicate. Store errors let the
// delivery through.
func (w *WebhookIngestor) claim(ctx context.Context, event WebhookEvent) (string, bool) {
	if w.store == nil {
		return "", true
	}
	key := w.store.IdempotencyKey(webhookScope, event.DedupKey())
	ok, err := w.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), w.ttl)
	if err != nil {
		w.logg.Warn(ctx, "webhook idempotency store unavailable: "+err.Error())
		return "", true
	}
	return key, ok
}

func (w *WebhookIngestor) release(ctx context.Context, key string) {
	if w.store == nil || key == "" {
		return
	}
	if err := w.store.Del(ctx, key); err != nil {
		w.logg.Warn(ctx, "failed to release webhook idempotency key: "+err.Error())
	}
}
