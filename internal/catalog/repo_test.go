package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tradepost/pkg/db/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_user_id TEXT,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, sellerUserID *uuid.UUID, priceCents int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:           uuid.New(),
		SellerUserID: sellerUserID,
		Name:         "test product",
		PriceCents:   priceCents,
		Stock:        stock,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestDecrementStockHappyPath(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, nil, 1000, 5)

	ok, err := repo.DecrementStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
}

func TestDecrementStockInsufficient(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, nil, 1000, 2)

	ok, err := repo.DecrementStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	// The failed take must not touch the row.
	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)
}

func TestDecrementStockExactlyToZero(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, nil, 1000, 3)

	ok, err := repo.DecrementStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
}

func TestDecrementStockMissingProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	ok, err := repo.DecrementStock(context.Background(), uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := repo.Exists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateAssignsID(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)

	sellerID := uuid.New()
	created, err := repo.Create(context.Background(), &models.Product{
		SellerUserID: &sellerID,
		Name:         "widget",
		PriceCents:   2500,
		Stock:        10,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	listed, err := repo.ListBySeller(context.Background(), sellerID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, nil, 1000, 5)

	require.NoError(t, repo.Update(ctx, product.ID, map[string]any{"price_cents": int64(1250)}))

	reloaded, err := repo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), reloaded.PriceCents)
	assert.Equal(t, 5, reloaded.Stock)
}
