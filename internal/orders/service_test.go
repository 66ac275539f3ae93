package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/freshcart/freshcart-backend/internal/cart"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`DROP TABLE IF EXISTS order_items`,
		`DROP TABLE IF EXISTS orders`,
		`DROP TABLE IF EXISTS cart_items`,
		`DROP TABLE IF EXISTS carts`,
		`DROP TABLE IF EXISTS items`,
		`
CREATE TABLE items (
  id TEXT PRIMARY KEY,
  category_id TEXT,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  stock_quantity INTEGER NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 1,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`
CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`
CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  added_at DATETIME,
  UNIQUE (cart_id, item_id)
);`,
		`
CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_number TEXT NOT NULL UNIQUE,
  total_amount NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'pending',
  address_id TEXT,
  deliver_after DATETIME NOT NULL,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`
CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  item_id TEXT,
  item_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_at_purchase NUMERIC NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type ordersTestEnv struct {
	db      *gorm.DB
	svc     Service
	cartSvc cart.Service
}

func setupOrdersEnv(t *testing.T) *ordersTestEnv {
	t.Helper()

	db := setupOrdersTestDB(t)
	tx := &testTxRunner{db: db}

	cartRepo := cart.NewRepository(db)
	cartSvc, err := cart.NewService(cart.ServiceParams{Repo: cartRepo, Tx: tx})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:          NewRepository(db),
		Cart:          cartRepo,
		Tx:            tx,
		DeliveryDelay: 2 * time.Minute,
	})
	require.NoError(t, err)

	return &ordersTestEnv{db: db, svc: svc, cartSvc: cartSvc}
}

func seedOrderItem(t *testing.T, db *gorm.DB, name string, price float64, stock int, available bool) *models.Item {
	t.Helper()
	item := &models.Item{
		Name:          name,
		Price:         decimal.NewFromFloat(price).Round(2),
		StockQuantity: stock,
		IsAvailable:   available,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestCheckoutPlacesOrder(t *testing.T) {
	env := setupOrdersEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	bananas := seedOrderItem(t, env.db, "Organic Bananas", 1.99, 10, true)
	bread := seedOrderItem(t, env.db, "Sourdough Loaf", 5.99, 4, true)

	_, err := env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: bananas.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: bread.ID, Quantity: 1})
	require.NoError(t, err)

	before := time.Now().UTC()
	placed, err := env.svc.Checkout(ctx, userID, CheckoutRequest{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(placed.Order.OrderNumber, "ORD-"), placed.Order.OrderNumber)
	assert.Equal(t, enums.OrderStatusPending, placed.Order.Status)
	assert.InDelta(t, 11.96, placed.Order.TotalAmount, 0.001)
	require.Len(t, placed.Items, 2)
	assert.WithinDuration(t, before.Add(2*time.Minute), placed.Order.EstimatedDelivery, 5*time.Second)

	// Stock was decremented and the cart emptied.
	var banana models.Item
	require.NoError(t, env.db.First(&banana, "id = ?", bananas.ID).Error)
	assert.Equal(t, 7, banana.StockQuantity)
	assert.True(t, banana.IsAvailable)

	var loaf models.Item
	require.NoError(t, env.db.First(&loaf, "id = ?", bread.ID).Error)
	assert.Equal(t, 3, loaf.StockQuantity)

	view, err := env.cartSvc.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCheckoutDepletingStockDisablesItem(t *testing.T) {
	env := setupOrdersEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	eggs := seedOrderItem(t, env.db, "Eggs", 4.99, 2, true)
	_, err := env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: eggs.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = env.svc.Checkout(ctx, userID, CheckoutRequest{})
	require.NoError(t, err)

	var reloaded models.Item
	require.NoError(t, env.db.First(&reloaded, "id = ?", eggs.ID).Error)
	assert.Equal(t, 0, reloaded.StockQuantity)
	assert.False(t, reloaded.IsAvailable)
}

func TestCheckoutCollectsAllProblems(t *testing.T) {
	env := setupOrdersEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	spinach := seedOrderItem(t, env.db, "Baby Spinach", 3.49, 10, true)
	milk := seedOrderItem(t, env.db, "Whole Milk", 3.79, 10, true)

	_, err := env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: spinach.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: milk.ID, Quantity: 8})
	require.NoError(t, err)

	// Catalog moved underneath the cart.
	require.NoError(t, env.db.Model(&models.Item{}).Where("id = ?", spinach.ID).
		Update("is_available", false).Error)
	require.NoError(t, env.db.Model(&models.Item{}).Where("id = ?", milk.ID).
		Update("stock_quantity", 5).Error)

	_, err = env.svc.Checkout(ctx, userID, CheckoutRequest{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Len(t, details["unavailable_items"], 1)
	assert.Len(t, details["insufficient_stock"], 1)

	// No order may exist after a failed checkout.
	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := setupOrdersEnv(t)

	_, err := env.svc.Checkout(context.Background(), uuid.New(), CheckoutRequest{})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestHistoryAndGetByNumber(t *testing.T) {
	env := setupOrdersEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	bananas := seedOrderItem(t, env.db, "Organic Bananas", 1.99, 20, true)

	_, err := env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: bananas.ID, Quantity: 1})
	require.NoError(t, err)
	first, err := env.svc.Checkout(ctx, userID, CheckoutRequest{})
	require.NoError(t, err)

	_, err = env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: bananas.ID, Quantity: 2})
	require.NoError(t, err)
	second, err := env.svc.Checkout(ctx, userID, CheckoutRequest{})
	require.NoError(t, err)

	history, err := env.svc.History(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, history.Count)

	got, err := env.svc.GetByNumber(ctx, userID, second.Order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, second.Order.ID, got.ID)

	// Order numbers are caller-scoped.
	_, err = env.svc.GetByNumber(ctx, uuid.New(), first.Order.OrderNumber)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestAdminListFiltersByStatus(t *testing.T) {
	env := setupOrdersEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	bananas := seedOrderItem(t, env.db, "Organic Bananas", 1.99, 20, true)

	_, err := env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: bananas.ID, Quantity: 1})
	require.NoError(t, err)
	placed, err := env.svc.Checkout(ctx, userID, CheckoutRequest{})
	require.NoError(t, err)

	_, err = env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: bananas.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.svc.Checkout(ctx, userID, CheckoutRequest{})
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(ctx, placed.Order.ID, UpdateStatusRequest{Status: "processing"})
	require.NoError(t, err)

	processing := enums.OrderStatusProcessing
	listing, err := env.svc.AdminList(ctx, ListFilters{Status: &processing}, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, listing.Page.Total)
	require.Len(t, listing.Orders, 1)
	assert.Equal(t, placed.Order.ID, listing.Orders[0].ID)

	all, err := env.svc.AdminList(ctx, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Page.Total)
}

func TestUpdateStatusTransitions(t *testing.T) {
	env := setupOrdersEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	bananas := seedOrderItem(t, env.db, "Organic Bananas", 1.99, 20, true)
	_, err := env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: bananas.ID, Quantity: 1})
	require.NoError(t, err)
	placed, err := env.svc.Checkout(ctx, userID, CheckoutRequest{})
	require.NoError(t, err)
	orderID := placed.Order.ID

	updated, err := env.svc.UpdateStatus(ctx, orderID, UpdateStatusRequest{Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, updated.Status)

	// No regression to an earlier state.
	_, err = env.svc.UpdateStatus(ctx, orderID, UpdateStatusRequest{Status: "processing"})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	delivered, err := env.svc.UpdateStatus(ctx, orderID, UpdateStatusRequest{Status: "delivered"})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)

	// Terminal states reject everything.
	_, err = env.svc.UpdateStatus(ctx, orderID, UpdateStatusRequest{Status: "cancelled"})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	_, err = env.svc.UpdateStatus(ctx, orderID, UpdateStatusRequest{Status: "bogus"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = env.svc.UpdateStatus(ctx, uuid.New(), UpdateStatusRequest{Status: "processing"})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeliverDueAdvancesOnlyDueOrders(t *testing.T) {
	env := setupOrdersEnv(t)
	ctx := context.Background()
	repo := NewRepository(env.db)
	now := time.Now().UTC()

	due := &models.Order{
		UserID:       uuid.New(),
		OrderNumber:  "ORD-1-AAAAAA",
		TotalAmount:  decimal.NewFromFloat(9.99),
		Status:       enums.OrderStatusPending,
		DeliverAfter: now.Add(-time.Minute),
	}
	future := &models.Order{
		UserID:       uuid.New(),
		OrderNumber:  "ORD-2-BBBBBB",
		TotalAmount:  decimal.NewFromFloat(9.99),
		Status:       enums.OrderStatusPending,
		DeliverAfter: now.Add(time.Hour),
	}
	cancelled := &models.Order{
		UserID:       uuid.New(),
		OrderNumber:  "ORD-3-CCCCCC",
		TotalAmount:  decimal.NewFromFloat(9.99),
		Status:       enums.OrderStatusCancelled,
		DeliverAfter: now.Add(-time.Hour),
	}
	require.NoError(t, repo.Create(ctx, due))
	require.NoError(t, repo.Create(ctx, future))
	require.NoError(t, repo.Create(ctx, cancelled))

	count, err := env.svc.DeliverDue(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	reloaded, err := repo.FindByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, reloaded.Status)
	require.NotNil(t, reloaded.DeliveredAt)

	untouched, err := repo.FindByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, untouched.Status)

	terminal, err := repo.FindByID(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, terminal.Status)
}

func TestCheckoutRejectsUnknownAddress(t *testing.T) {
	env := setupOrdersEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	bananas := seedOrderItem(t, env.db, "Organic Bananas", 1.99, 20, true)
	_, err := env.cartSvc.AddItem(ctx, userID, cart.AddItemRequest{ItemID: bananas.ID, Quantity: 1})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:          NewRepository(env.db),
		Cart:          cart.NewRepository(env.db),
		Addresses:     staticAddressVerifier(false),
		Tx:            &testTxRunner{db: env.db},
		DeliveryDelay: time.Minute,
	})
	require.NoError(t, err)

	missing := uuid.New()
	_, err = svc.Checkout(ctx, userID, CheckoutRequest{DeliveryAddressID: &missing})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

type staticAddressVerifier bool

func (v staticAddressVerifier) Exists(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return bool(v), nil
}
