package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/printshop-backend/pkg/db/types"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.Order{}, &models.OrderItem{}, &models.OutboxEvent{}))
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "orders-test", Format: "json", Output: io.Discard})
}

func seedUser(t *testing.T, conn *gorm.DB, role enums.UserRole) models.User {
	t.Helper()
	u := models.User{Name: "Asha", Email: uuid.NewString() + "@example.com", Role: role}
	require.NoError(t, conn.Create(&u).Error)
	return u
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, method enums.PaymentMethod, createdAt time.Time) models.Order {
	t.Helper()
	o := models.Order{
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		Subtotal:      decimal.NewFromInt(1000),
		Discount:      decimal.NewFromInt(150),
		Tax:           decimal.NewFromInt(153),
		Shipping:      decimal.NewFromInt(49),
		TotalAmount:   decimal.NewFromInt(1052),
		Address:       "Asha Rao\n12 MG Road\nBengaluru, Karnataka - 560001\nPhone: 9876543210",
		PaymentMethod: method,
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     createdAt,
	}
	require.NoError(t, NewRepository(conn).CreateOrder(context.Background(), &o))
	items := []models.OrderItem{{
		OrderID:     o.ID,
		ProductID:   uuid.New(),
		ProductName: "Dragon Figurine",
		Quantity:    2,
		Price:       decimal.NewFromInt(500),
		CustomInput: dbtypes.CustomInput{"color": "red"},
	}}
	require.NoError(t, NewRepository(conn).CreateItems(context.Background(), items))
	return o
}

type stubNotifier struct {
	calls  int
	status enums.OrderStatus
	order  models.Order
	err    error
}

func (s *stubNotifier) OrderStatusChanged(_ context.Context, order models.Order, status enums.OrderStatus) error {
	s.calls++
	s.order = order
	s.status = status
	return s.err
}

func newTestService(t *testing.T, conn *gorm.DB, notifier StatusNotifier) Service {
	t.Helper()
	logg := testLogger()
	svc, err := NewService(
		NewRepository(conn),
		db.Wrap(conn),
		outbox.NewService(outbox.NewRepository(conn), logg),
		notifier,
		nil,
		logg,
	)
	require.NoError(t, err)
	return svc
}
