package checkout

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/printshop-backend/internal/coupons"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/payments"
	"github.com/angelmondragon/printshop-backend/internal/pricing"
	"github.com/angelmondragon/printshop-backend/internal/products"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/printshop-backend/pkg/db/types"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderItem{},
		&models.OutboxEvent{},
	))
	return conn
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, price int64, stock int, fields dbtypes.CustomFields) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.NewFromInt(price), Stock: stock, CustomFields: fields}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func seedCoupon(t *testing.T, conn *gorm.DB, c models.Coupon) models.Coupon {
	t.Helper()
	require.NoError(t, conn.Create(&c).Error)
	return c
}

func intPtr(v int) *int { return &v }

type stubGateway struct {
	sessionID string
	err       error
	requests  []payments.SessionRequest
}

func (s *stubGateway) CreateSession(_ context.Context, req payments.SessionRequest) (string, error) {
	s.requests = append(s.requests, req)
	return s.sessionID, s.err
}

func (s *stubGateway) FetchLatestPaymentStatus(context.Context, uuid.UUID) (payments.GatewayPayment, error) {
	return payments.GatewayPayment{Status: payments.GatewayPending}, nil
}

// staleProducts serves an outdated stock snapshot so the conditional
// decrement is the only guard left.
type staleProducts struct {
	products.Repository
	stock int
}

func (s staleProducts) WithTx(tx *gorm.DB) products.Repository {
	return staleProducts{Repository: s.Repository.WithTx(tx), stock: s.stock}
}

func (s staleProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out, err := s.Repository.FindByIDs(ctx, ids)
	for id, p := range out {
		p.Stock = s.stock
		out[id] = p
	}
	return out, err
}

// sessionlessOrders cannot persist the payment session id.
type sessionlessOrders struct {
	orders.Repository
}

func (s sessionlessOrders) WithTx(tx *gorm.DB) orders.Repository {
	return sessionlessOrders{Repository: s.Repository.WithTx(tx)}
}

func (s sessionlessOrders) SetPaymentSession(context.Context, uuid.UUID, string) error {
	return errors.New("db: connection reset")
}

func testDeps(t *testing.T, conn *gorm.DB, gateway payments.Gateway) Deps {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Format: "json", Output: io.Discard})
	return Deps{
		Tx:       db.Wrap(conn),
		Products: products.NewRepository(conn),
		Coupons:  coupons.NewRepository(conn),
		Orders:   orders.NewRepository(conn),
		Evaluator: &pricing.Evaluator{
			TaxRate:      decimal.RequireFromString("0.18"),
			ShippingFlat: decimal.NewFromInt(49),
			Now:          func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		},
		Outbox:  outbox.NewService(outbox.NewRepository(conn), logg),
		Gateway: gateway,
		Site:    config.SiteConfig{BaseURL: "https://shop.example.com"},
		Logger:  logg,
	}
}

func newTestService(t *testing.T, conn *gorm.DB, gateway payments.Gateway) Service {
	t.Helper()
	svc, err := NewService(testDeps(t, conn, gateway))
	require.NoError(t, err)
	return svc
}

func orderInput(userID uuid.UUID, lines ...CartLine) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:  userID,
		Email:   "asha@example.com",
		Address: validAddress(),
		Cart:    lines,
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func reloadProduct(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p
}

func reloadOrder(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, conn.Preload("Items").First(&o, "id = ?", id).Error)
	return o
}

