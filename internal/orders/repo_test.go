package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tradepost/pkg/db/models"
	"tradepost/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:orders_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'buyer',
  wallet_balance_cents INTEGER NOT NULL DEFAULT 0 CHECK (wallet_balance_cents >= 0),
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	sellersTable := `
CREATE TABLE IF NOT EXISTS sellers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  shop_name TEXT NOT NULL,
  commission_rate TEXT NOT NULL DEFAULT '0.10',
  approved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_user_id TEXT,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`
	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  region_id INTEGER NOT NULL,
  address TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	notifs := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`
	for _, schema := range []string{users, sellersTable, products, ordersTable, orderItems, notifs} {
		require.NoError(t, conn.Exec(schema).Error)
	}
	return conn
}

func seedTestProduct(t *testing.T, conn *gorm.DB, sellerUserID *uuid.UUID, name string, priceCents int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:           uuid.New(),
		SellerUserID: sellerUserID,
		Name:         name,
		PriceCents:   priceCents,
		Stock:        stock,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func seedTestOrder(t *testing.T, repo Repository, status enums.OrderStatus, items []models.OrderItem, totalCents int64) *models.Order {
	t.Helper()
	order, err := repo.CreateOrder(context.Background(), &models.Order{
		CustomerName:  "Rahim Uddin",
		CustomerPhone: "01700000000",
		RegionID:      3,
		Address:       "12 Lake Road",
		TotalCents:    totalCents,
		Status:        status,
		Items:         items,
	})
	require.NoError(t, err)
	return order
}

func TestCreateOrderAssignsIDs(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)

	product := seedTestProduct(t, conn, nil, "widget", 1000, 10)
	order := seedTestOrder(t, repo, enums.OrderStatusPending, []models.OrderItem{
		{ProductID: product.ID, Qty: 2, UnitPriceCents: 1000},
	}, 2000)

	assert.NotEqual(t, uuid.Nil, order.ID)
	require.Len(t, order.Items, 1)
	assert.NotEqual(t, uuid.Nil, order.Items[0].ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
}

func TestMarkDeliveredWinsOnce(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := seedTestProduct(t, conn, nil, "widget", 1000, 10)
	order := seedTestOrder(t, repo, enums.OrderStatusShipped, []models.OrderItem{
		{ProductID: product.ID, Qty: 1, UnitPriceCents: 1000},
	}, 1000)

	won, err := repo.MarkDelivered(ctx, order.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.MarkDelivered(ctx, order.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, won, "second delivery must not win")

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, reloaded.Status)
	assert.NotNil(t, reloaded.DeliveredAt)
}

func TestMarkDeliveredSkipsCancelled(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := seedTestProduct(t, conn, nil, "widget", 1000, 10)
	order := seedTestOrder(t, repo, enums.OrderStatusCancelled, []models.OrderItem{
		{ProductID: product.ID, Qty: 1, UnitPriceCents: 1000},
	}, 1000)

	won, err := repo.MarkDelivered(ctx, order.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, won)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
}

func TestTransitionStatusCompareAndSet(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := seedTestProduct(t, conn, nil, "widget", 1000, 10)
	order := seedTestOrder(t, repo, enums.OrderStatusPending, []models.OrderItem{
		{ProductID: product.ID, Qty: 1, UnitPriceCents: 1000},
	}, 1000)

	moved, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusProcessing)
	require.NoError(t, err)
	assert.True(t, moved)

	// Stale expected status loses.
	moved, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestSettlementLinesJoinSellers(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)

	sellerID := uuid.New()
	owned := seedTestProduct(t, conn, &sellerID, "owned", 5000, 10)
	house := seedTestProduct(t, conn, nil, "house", 3000, 10)
	order := seedTestOrder(t, repo, enums.OrderStatusShipped, []models.OrderItem{
		{ProductID: owned.ID, Qty: 2, UnitPriceCents: 5000},
		{ProductID: house.ID, Qty: 1, UnitPriceCents: 3000},
	}, 13000)

	lines, err := repo.SettlementLines(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	bySeller := map[string]SettlementLine{}
	for _, line := range lines {
		key := "house"
		if line.SellerUserID != nil {
			key = line.SellerUserID.String()
		}
		bySeller[key] = line
	}
	assert.Equal(t, 2, bySeller[sellerID.String()].Qty)
	assert.Nil(t, bySeller["house"].SellerUserID)
}

func TestFindDetailIncludesProductNames(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)

	product := seedTestProduct(t, conn, nil, "premium widget", 2500, 10)
	order := seedTestOrder(t, repo, enums.OrderStatusPending, []models.OrderItem{
		{ProductID: product.ID, Qty: 3, UnitPriceCents: 2500},
	}, 7500)

	detail, err := repo.FindDetail(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, detail.Order.ID)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "premium widget", detail.Items[0].ProductName)
	assert.Equal(t, int64(7500), detail.Items[0].LineTotalCents)
}

func TestListOrdersByStatus(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)

	product := seedTestProduct(t, conn, nil, "widget", 1000, 100)
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusShipped,
		enums.OrderStatusPending,
	} {
		seedTestOrder(t, repo, status, []models.OrderItem{
			{ProductID: product.ID, Qty: 1, UnitPriceCents: 1000},
		}, 1000)
	}

	pending := enums.OrderStatusPending
	rows, err := repo.List(context.Background(), 10, nil, &pending)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	all, err := repo.List(context.Background(), 10, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
