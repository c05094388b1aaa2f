package products

import (
	"context"
	"sync"
	"testing"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.NewFromInt(100), Stock: stock}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestFindByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	a := seedProduct(t, db, "Vase", 3)
	b := seedProduct(t, db, "Lamp", 1)

	got, err := repo.FindByIDs(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Vase", got[a.ID].Name)

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestDecrementStockGuard(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	p := seedProduct(t, db, "Vase", 3)
	ctx := context.Background()

	ok, err := repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	require.False(t, ok, "only 1 left")

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", p.ID).Error)
	require.Equal(t, 1, reloaded.Stock)

	_, err = repo.DecrementStock(ctx, p.ID, 0)
	require.Error(t, err)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	p := seedProduct(t, db, "Gear", 5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.DecrementStock(context.Background(), p.ID, 1)
			if err != nil {
				return
			}
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", p.ID).Error)
	require.GreaterOrEqual(t, reloaded.Stock, 0)
	require.Equal(t, 5-granted, reloaded.Stock)
	require.LessOrEqual(t, granted, 5)
}
