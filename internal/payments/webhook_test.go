package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/angelmondragon/printshop-backend/pkg/cashfree"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "cf_secret"

type countingHandler struct {
	calls int
	err   error
	inner eventHandler
}

func (c *countingHandler) HandleEvent(ctx context.Context, event WebhookEvent) (WebhookResult, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if c.inner != nil {
		return c.inner.HandleEvent(ctx, event)
	}
	return WebhookProcessed, nil
}

func successBody(orderID string) []byte {
	return []byte(fmt.Sprintf(`{"type":"PAYMENT_SUCCESS_WEBHOOK","data":{"order":{"order_id":%q},"payment":{"cf_payment_id":5114910384,"payment_status":"SUCCESS","order_id":%q}}}`, orderID, orderID))
}

func newTestIngestor(t *testing.T, handler eventHandler, store idempotencyStore) *WebhookIngestor {
	t.Helper()
	w, err := NewWebhookIngestor(testSecret, handler, store, 0, nil, testLogger())
	require.NoError(t, err)
	return w
}

func TestParseWebhookAcceptsNumericPaymentID(t *testing.T) {
	event, err := ParseWebhook(successBody("order-1"))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSuccess, event.Type)
	assert.Equal(t, "order-1", event.OrderID)
	assert.Equal(t, "SUCCESS", event.PaymentStatus)
	assert.Equal(t, "5114910384", event.ProviderPaymentID)
	assert.Equal(t, "PAYMENT_SUCCESS_WEBHOOK:order-1:5114910384", event.DedupKey())

	_, err = ParseWebhook([]byte(`{"data":{}}`))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestIngestRejectsBadSignatureBeforeParsing(t *testing.T) {
	handler := &countingHandler{}
	w := newTestIngestor(t, handler, newMemoryStore())

	_, err := w.Ingest(context.Background(), []byte("not json"), "bogus", "1700000000")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidSignature, typed.Code())
	assert.Zero(t, handler.calls)
}

func TestIngestDedupesReplays(t *testing.T) {
	handler := &countingHandler{}
	store := newMemoryStore()
	w := newTestIngestor(t, handler, store)
	body := successBody("order-1")
	sig := cashfree.Sign(testSecret, "1700000000", body)

	res, err := w.Ingest(context.Background(), body, sig, "1700000000")
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res)

	res, err = w.Ingest(context.Background(), body, sig, "1700000000")
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, res)
	assert.Equal(t, 1, handler.calls)
}

func TestIngestReleasesKeyOnFailure(t *testing.T) {
	handler := &countingHandler{err: errors.New("db down")}
	store := newMemoryStore()
	w := newTestIngestor(t, handler, store)
	body := successBody("order-1")
	sig := cashfree.Sign(testSecret, "1", body)

	_, err := w.Ingest(context.Background(), body, sig, "1")
	require.Error(t, err)
	assert.Empty(t, store.keys)

	handler.err = nil
	res, err := w.Ingest(context.Background(), body, sig, "1")
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res)
	assert.Equal(t, 2, handler.calls)
}

func TestIngestFailsOpenWhenStoreErrors(t *testing.T) {
	handler := &countingHandler{}
	store := newMemoryStore()
	store.err = errors.New("redis: connection refused")
	w := newTestIngestor(t, handler, store)
	body := successBody("order-1")
	sig := cashfree.Sign(testSecret, "1", body)

	res, err := w.Ingest(context.Background(), body, sig, "1")
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res)
	assert.Equal(t, 1, handler.calls)
}

func TestIngestEndToEndMarksPaid(t *testing.T) {
	conn := setupPaymentsTestDB(t)
	svc := newTestService(t, conn, &stubGateway{})
	order := seedOrder(t, conn, enums.PaymentMethodOnline, enums.PaymentStatusPending, "session_1")
	w := newTestIngestor(t, svc, newMemoryStore())
	body := successBody(order.ID.String())
	sig := cashfree.Sign(testSecret, "1700000000", body)

	for i := 0; i < 2; i++ {
		_, err := w.Ingest(context.Background(), body, sig, "1700000000")
		require.NoError(t, err)
	}
	stored := loadOrder(t, conn, order.ID)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
	require.NotNil(t, stored.PaymentID)
	assert.Equal(t, "5114910384", *stored.PaymentID)
	assert.EqualValues(t, 1, countEvents(t, conn, order.ID))
}
