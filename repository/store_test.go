package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"pos-service/checkout"
	"pos-service/config"
	"pos-service/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := Connect(&config.Config{
		DBHost: host,
		DBPort: port.Port(),
		DBUser: "testuser",
		DBPass: "testpass",
		DBName: "testdb",
	})
	require.NoError(t, err)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, p model.Product) model.Product {
	t.Helper()
	require.NoError(t, db.Create(&p).Error)
	return p
}

func stock(v int64) *int64 {
	return &v
}

func currentStock(t *testing.T, db *gorm.DB, id uint) *int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func TestDecrementStock_Guarded(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	tracked := seedProduct(t, db, model.Product{Name: "Coffee", Barcode: "C-1", Price: 10000, Stock: stock(5)})
	untracked := seedProduct(t, db, model.Product{Name: "Service", Barcode: "S-1", Price: 5000})

	err := store.RunAtomic(ctx, func(tx checkout.AtomicStore) error {
		ok, err := tx.DecrementStock(ctx, tracked.ID, 3)
		require.NoError(t, err)
		assert.True(t, ok)

		// Guard rejects going below zero.
		ok, err = tx.DecrementStock(ctx, tracked.ID, 3)
		require.NoError(t, err)
		assert.False(t, ok)

		// NULL stock never matches the guard.
		ok, err = tx.DecrementStock(ctx, untracked.ID, 1)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), *currentStock(t, db, tracked.ID))
	assert.Nil(t, currentStock(t, db, untracked.ID))
}

func TestFindActiveProductsByIDs_ExcludesSoftDeleted(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	kept := seedProduct(t, db, model.Product{Name: "Keep", Barcode: "K-1", Price: 100, Stock: stock(1)})
	gone := seedProduct(t, db, model.Product{Name: "Gone", Barcode: "G-1", Price: 100, Stock: stock(1)})
	require.NoError(t, db.Delete(&gone).Error)

	products, err := store.FindActiveProductsByIDs(ctx, []uint{kept.ID, gone.ID})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, kept.ID, products[0].ID)

	// The tombstoned row is still there for historical reads.
	var raw model.Product
	require.NoError(t, db.Unscoped().First(&raw, gone.ID).Error)
	assert.True(t, raw.DeletedAt.Valid)
}

func TestCheckout_EndToEnd(t *testing.T) {
	db := setupTestDB(t)
	engine := checkout.NewEngine(NewStore(db))
	ctx := context.Background()

	a := seedProduct(t, db, model.Product{Name: "A", Barcode: "A-1", Price: 10000, Stock: stock(5)})
	b := seedProduct(t, db, model.Product{Name: "B", Barcode: "B-1", Price: 5000})

	receipt, err := engine.Checkout(ctx, nil, []checkout.CartLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 100},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(520000), receipt.Total)

	assert.Equal(t, int64(3), *currentStock(t, db, a.ID))
	assert.Nil(t, currentStock(t, db, b.ID))

	var trx model.Transaction
	require.NoError(t, db.Preload("Items").First(&trx, receipt.TransactionID).Error)
	assert.Equal(t, receipt.Code, trx.Code)
	assert.Equal(t, int64(520000), trx.Total)
	assert.Len(t, trx.Items, 2)
	assert.NotEmpty(t, trx.ItemsSnapshot)
}

func TestCheckout_RollbackLeavesNoRows(t *testing.T) {
	db := setupTestDB(t)
	engine := checkout.NewEngine(NewStore(db))
	ctx := context.Background()

	a := seedProduct(t, db, model.Product{Name: "A", Barcode: "A-1", Price: 100, Stock: stock(3)})

	// Both lines pass the fast path individually; the second guarded
	// decrement fails inside the database transaction and everything must
	// roll back.
	_, err := engine.Checkout(ctx, nil, []checkout.CartLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: a.ID, Quantity: 2},
	})

	var insufficient *checkout.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	assert.Equal(t, int64(3), *currentStock(t, db, a.ID))

	var trxCount, itemCount int64
	db.Model(&model.Transaction{}).Count(&trxCount)
	db.Model(&model.TransactionItem{}).Count(&itemCount)
	assert.Zero(t, trxCount)
	assert.Zero(t, itemCount)
}

func TestCheckout_ConcurrentLastUnit(t *testing.T) {
	db := setupTestDB(t)
	engine := checkout.NewEngine(NewStore(db))
	ctx := context.Background()

	a := seedProduct(t, db, model.Product{Name: "A", Barcode: "A-1", Price: 100, Stock: stock(1)})

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = engine.Checkout(ctx, nil, []checkout.CartLine{{ProductID: a.ID, Quantity: 1}})
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			var insufficient *checkout.InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, int64(0), *currentStock(t, db, a.ID))

	var trxCount int64
	db.Model(&model.Transaction{}).Count(&trxCount)
	assert.Equal(t, int64(1), trxCount)
}
