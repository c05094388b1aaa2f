package payments

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}, &models.OutboxEvent{}))
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "payments-test", Format: "json", Output: io.Discard})
}

func seedOrder(t *testing.T, conn *gorm.DB, method enums.PaymentMethod, status enums.PaymentStatus, sessionID string) models.Order {
	t.Helper()
	o := models.Order{
		UserID:        uuid.New(),
		Status:        enums.OrderStatusPending,
		Subtotal:      decimal.NewFromInt(1000),
		Discount:      decimal.Zero,
		Tax:           decimal.Zero,
		Shipping:      decimal.Zero,
		TotalAmount:   decimal.NewFromInt(1000),
		Address:       "Asha Rao\n12 MG Road",
		PaymentMethod: method,
		PaymentStatus: status,
	}
	if sessionID != "" {
		o.PaymentSessionID = &sessionID
	}
	require.NoError(t, conn.Create(&o).Error)
	return o
}

func loadOrder(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, conn.First(&o, "id = ?", id).Error)
	return o
}

func countEvents(t *testing.T, conn *gorm.DB, id uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("aggregate_id = ?", id).Count(&n).Error)
	return n
}

type stubGateway struct {
	payment     GatewayPayment
	err         error
	fetchCalls  int
	sessionID   string
	sessionErr  error
	sessionReqs []SessionRequest
}

func (s *stubGateway) CreateSession(_ context.Context, req SessionRequest) (string, error) {
	s.sessionReqs = append(s.sessionReqs, req)
	return s.sessionID, s.sessionErr
}

func (s *stubGateway) FetchLatestPaymentStatus(context.Context, uuid.UUID) (GatewayPayment, error) {
	s.fetchCalls++
	return s.payment, s.err
}

func newTestService(t *testing.T, conn *gorm.DB, gateway Gateway) Service {
	t.Helper()
	logg := testLogger()
	svc, err := NewService(
		orders.NewRepository(conn),
		db.Wrap(conn),
		outbox.NewService(outbox.NewRepository(conn), logg),
		gateway,
		nil,
		logg,
	)
	require.NoError(t, err)
	return svc
}

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]any
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]any{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "ps:idempotency:" + scope + ":" + id
}
