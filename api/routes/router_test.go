package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tradepost/internal/catalog"
	"tradepost/internal/notifications"
	"tradepost/internal/orders"
	"tradepost/internal/sellers"
	"tradepost/internal/wallet"
	pkgauth "tradepost/pkg/auth"
	"tradepost/pkg/config"
	"tradepost/pkg/db"
	"tradepost/pkg/db/models"
	"tradepost/pkg/enums"
	"tradepost/pkg/logger"
)

var testSchemas = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'buyer',
  wallet_balance_cents INTEGER NOT NULL DEFAULT 0 CHECK (wallet_balance_cents >= 0),
  loyalty_points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS sellers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  shop_name TEXT NOT NULL,
  commission_rate TEXT NOT NULL DEFAULT '0.10',
  approved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_user_id TEXT,
  name TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS orders (
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
);`,
	`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS payout_requests (
  id TEXT PRIMARY KEY,
  seller_user_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  resolved_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`,
}

type routerFixture struct {
	handler http.Handler
	conn    *gorm.DB
	cfg     *config.Config
}

func setupRouter(t *testing.T) *routerFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, schema := range testSchemas {
		require.NoError(t, conn.Exec(schema).Error)
	}

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT.Secret = "router-test-secret"
	cfg.JWT.Issuer = "tradepost-identity"

	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	client := db.FromGorm(conn)

	catalogRepo := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(catalogRepo)
	require.NoError(t, err)
	notificationsRepo := notifications.NewRepository(conn)
	notificationsSvc, err := notifications.NewService(notificationsRepo)
	require.NoError(t, err)
	walletRepo := wallet.NewRepository(conn)
	walletSvc, err := wallet.NewService(walletRepo, notificationsRepo, client, nil, logg, 100)
	require.NoError(t, err)
	ordersSvc, err := orders.NewService(
		orders.NewRepository(conn),
		catalogRepo,
		sellers.NewRepository(conn),
		walletRepo,
		notificationsRepo,
		client,
		nil,
		nil,
		logg,
	)
	require.NoError(t, err)

	handler := NewRouter(cfg, logg, client, nil, prometheus.NewRegistry(), ordersSvc, catalogSvc, walletSvc, notificationsSvc)
	return &routerFixture{handler: handler, conn: conn, cfg: cfg}
}

func (f *routerFixture) token(t *testing.T, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(f.cfg.JWT, time.Now(), time.Hour, userID, role)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) seedUser(t *testing.T, role enums.UserRole, balanceCents int64) uuid.UUID {
	t.Helper()
	user := &models.User{
		ID:                 uuid.New(),
		Email:              fmt.Sprintf("%s@example.com", uuid.NewString()),
		Name:               "user",
		Role:               role,
		WalletBalanceCents: balanceCents,
	}
	require.NoError(t, f.conn.Create(user).Error)
	return user.ID
}

func (f *routerFixture) seedProduct(t *testing.T, sellerUserID *uuid.UUID, priceCents int64, stock int) uuid.UUID {
	t.Helper()
	product := &models.Product{
		ID:           uuid.New(),
		SellerUserID: sellerUserID,
		Name:         "router product",
		PriceCents:   priceCents,
		Stock:        stock,
	}
	require.NoError(t, f.conn.Create(product).Error)
	return product.ID
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestHealthLive(t *testing.T) {
	f := setupRouter(t)
	rec := f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	f := setupRouter(t)

	sellerID := f.seedUser(t, enums.UserRoleSeller, 0)
	productID := f.seedProduct(t, &sellerID, 100000, 5)
	adminID := f.seedUser(t, enums.UserRoleAdmin, 0)
	adminToken := f.token(t, adminID, enums.UserRoleAdmin)

	createBody := map[string]any{
		"customer_name":  "Rahim Uddin",
		"customer_phone": "01700000000",
		"region_id":      3,
		"address":        "12 Lake Road",
		"items": []map[string]any{
			{"id": productID.String(), "quantity": 2, "price": "1000.00"},
		},
		"total_amount": "2000.00",
	}
	rec := f.do(t, http.MethodPost, "/api/v1/orders", "", createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	payload := decodeEnvelope(t, rec)
	data := payload["data"].(map[string]any)
	orderID := data["id"].(string)
	assert.Equal(t, "pending", data["status"])

	// Anonymous status change is rejected.
	statusBody := map[string]any{"status": "delivered"}
	rec = f.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", "", statusBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Sellers cannot drive the status machine.
	sellerToken := f.token(t, sellerID, enums.UserRoleSeller)
	rec = f.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", sellerToken, statusBody)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, statusBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// 2000.00 gross at the default 10% commission nets 1800.00.
	var seller models.User
	require.NoError(t, f.conn.Where("id = ?", sellerID).First(&seller).Error)
	assert.Equal(t, int64(180000), seller.WalletBalanceCents)

	rec = f.do(t, http.MethodGet, "/api/v1/orders/"+orderID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decodeEnvelope(t, rec)["data"].(map[string]any)
	order := detail["order"].(map[string]any)
	assert.Equal(t, "delivered", order["status"])
}

func TestCreateOrderInsufficientStockHTTP(t *testing.T) {
	f := setupRouter(t)
	productID := f.seedProduct(t, nil, 1000, 1)

	body := map[string]any{
		"customer_name":  "Rahim Uddin",
		"customer_phone": "01700000000",
		"region_id":      3,
		"address":        "12 Lake Road",
		"items": []map[string]any{
			{"id": productID.String(), "quantity": 3, "price": "10.00"},
		},
		"total_amount": "30.00",
	}
	rec := f.do(t, http.MethodPost, "/api/v1/orders", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	payload := decodeEnvelope(t, rec)
	errObj := payload["error"].(map[string]any)
	assert.Equal(t, "CONFLICT", errObj["code"])
}

func TestPayoutFlowHTTP(t *testing.T) {
	f := setupRouter(t)

	sellerID := f.seedUser(t, enums.UserRoleSeller, 30000)
	sellerToken := f.token(t, sellerID, enums.UserRoleSeller)

	// 500.00 against a 300.00 balance is denied without side effects.
	rec := f.do(t, http.MethodPost, "/api/v1/seller/payouts", sellerToken, map[string]any{
		"amount": "500.00",
		"method": "bkash",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeEnvelope(t, rec)
	assert.Equal(t, "INSUFFICIENT_FUNDS", payload["error"].(map[string]any)["code"])

	rec = f.do(t, http.MethodPost, "/api/v1/seller/payouts", sellerToken, map[string]any{
		"amount": "200.00",
		"method": "bkash",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var seller models.User
	require.NoError(t, f.conn.Where("id = ?", sellerID).First(&seller).Error)
	assert.Equal(t, int64(10000), seller.WalletBalanceCents)

	rec = f.do(t, http.MethodGet, "/api/v1/seller/payouts", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Buyers have no payout surface.
	buyerID := f.seedUser(t, enums.UserRoleBuyer, 0)
	buyerToken := f.token(t, buyerID, enums.UserRoleBuyer)
	rec = f.do(t, http.MethodGet, "/api/v1/seller/payouts", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNotificationsFeedHTTP(t *testing.T) {
	f := setupRouter(t)

	sellerID := f.seedUser(t, enums.UserRoleSeller, 0)
	sellerToken := f.token(t, sellerID, enums.UserRoleSeller)
	productID := f.seedProduct(t, &sellerID, 10000, 5)
	adminID := f.seedUser(t, enums.UserRoleAdmin, 0)
	adminToken := f.token(t, adminID, enums.UserRoleAdmin)

	rec := f.do(t, http.MethodPost, "/api/v1/orders", "", map[string]any{
		"customer_name":  "Rahim Uddin",
		"customer_phone": "01700000000",
		"region_id":      3,
		"address":        "12 Lake Road",
		"items": []map[string]any{
			{"id": productID.String(), "quantity": 1, "price": "100.00"},
		},
		"total_amount": "100.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decodeEnvelope(t, rec)["data"].(map[string]any)["id"].(string)

	rec = f.do(t, http.MethodPatch, "/api/v1/orders/"+orderID+"/status", adminToken, map[string]any{"status": "delivered"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/notifications/", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), feed["unread_count"])

	rec = f.do(t, http.MethodPost, "/api/v1/notifications/read-all", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/notifications/", sellerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed = decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(0), feed["unread_count"])
}
