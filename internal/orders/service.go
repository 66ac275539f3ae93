package orders

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freshcart/freshcart-backend/internal/cart"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store is the persistence surface the order service operates on.
type Store interface {
	Create(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	FindByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListAll(ctx context.Context, filters ListFilters, page pagination.Params) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, deliveredAt *time.Time) error
	DecrementStock(ctx context.Context, itemID uuid.UUID, qty int) (bool, error)
	DeliverDue(ctx context.Context, now time.Time) (int64, error)
	WithTx(tx *gorm.DB) Store
}

type cartStore interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	WithTx(tx *gorm.DB) cart.Store
}

type addressVerifier interface {
	Exists(ctx context.Context, userID, addressID uuid.UUID) (bool, error)
}

// Service converts carts into orders and manages their lifecycle.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutView, error)
	History(ctx context.Context, userID uuid.UUID) (*HistoryView, error)
	GetByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*View, error)
	AdminList(ctx context.Context, filters ListFilters, page pagination.Params) (*AdminListView, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*View, error)
	DeliverDue(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	repo          Store
	cart          cartStore
	addresses     addressVerifier
	tx            txRunner
	deliveryDelay time.Duration
}

// ServiceParams bundles the order service dependencies. Addresses may be
// nil, in which case the delivery address id is stored unverified.
type ServiceParams struct {
	Repo          Store
	Cart          cartStore
	Addresses     addressVerifier
	Tx            txRunner
	DeliveryDelay time.Duration
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.DeliveryDelay <= 0 {
		return nil, fmt.Errorf("delivery delay must be positive")
	}
	return &service{
		repo:          params.Repo,
		cart:          params.Cart,
		addresses:     params.Addresses,
		tx:            params.Tx,
		deliveryDelay: params.DeliveryDelay,
	}, nil
}

// Checkout converts the caller's cart into an order. Validation collects
// every problem line before failing; the persistence step runs in one
// transaction so a mid-flight failure leaves no partial order behind.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutView, error) {
	userCart, err := s.cart.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	lines, err := s.cart.ListLines(ctx, userCart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	if req.DeliveryAddressID != nil && s.addresses != nil {
		ok, err := s.addresses.Exists(ctx, userID, *req.DeliveryAddressID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify delivery address")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address not found")
		}
	}

	unavailable := make([]map[string]any, 0)
	insufficient := make([]map[string]any, 0)
	for i := range lines {
		line := &lines[i]
		item := line.Item
		if item == nil {
			unavailable = append(unavailable, map[string]any{
				"name":   "unknown item",
				"reason": "no longer sold",
			})
			continue
		}
		if !item.IsAvailable {
			unavailable = append(unavailable, map[string]any{
				"name":   item.Name,
				"reason": "currently unavailable",
			})
			continue
		}
		if line.Quantity > item.StockQuantity {
			insufficient = append(insufficient, map[string]any{
				"name":      item.Name,
				"requested": line.Quantity,
				"available": item.StockQuantity,
			})
		}
	}
	if len(unavailable) > 0 || len(insufficient) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart cannot be checked out").
			WithDetails(map[string]any{
				"unavailable_items":  unavailable,
				"insufficient_stock": insufficient,
			})
	}

	now := time.Now().UTC()
	order := &models.Order{
		UserID:       userID,
		OrderNumber:  newOrderNumber(now),
		Status:       enums.OrderStatusPending,
		AddressID:    req.DeliveryAddressID,
		DeliverAfter: now.Add(s.deliveryDelay),
		Items:        make([]models.OrderItem, 0, len(lines)),
	}
	for i := range lines {
		line := &lines[i]
		itemID := line.ItemID
		order.Items = append(order.Items, models.OrderItem{
			ItemID:          &itemID,
			ItemName:        line.Item.Name,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.Item.Price,
		})
		subtotal := line.Item.Price.Mul(decimalFromInt(line.Quantity))
		order.TotalAmount = order.TotalAmount.Add(subtotal)
	}
	order.TotalAmount = order.TotalAmount.Round(2)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cartRepo := s.cart.WithTx(tx)

		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		for i := range lines {
			line := &lines[i]
			ok, err := repo.DecrementStock(ctx, line.ItemID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// Stock moved between validation and commit.
				return pkgerrors.New(pkgerrors.CodeValidation, "cart cannot be checked out").
					WithDetails(map[string]any{
						"unavailable_items": []map[string]any{},
						"insufficient_stock": []map[string]any{{
							"name":      line.Item.Name,
							"requested": line.Quantity,
							"available": line.Item.StockQuantity,
						}},
					})
			}
		}
		return cartRepo.Clear(ctx, userCart.ID)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	view := viewFromModel(order)
	return &CheckoutView{Order: view, Items: view.Items}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID) (*HistoryView, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	views := make([]View, 0, len(orders))
	for i := range orders {
		views = append(views, viewFromModel(&orders[i]))
	}
	return &HistoryView{Orders: views, Count: len(views)}, nil
}

func (s *service) GetByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*View, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByNumber(ctx, userID, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	view := viewFromModel(order)
	return &view, nil
}

func (s *service) AdminList(ctx context.Context, filters ListFilters, page pagination.Params) (*AdminListView, error) {
	page = page.Normalize()
	orders, total, err := s.repo.ListAll(ctx, filters, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	views := make([]View, 0, len(orders))
	for i := range orders {
		views = append(views, viewFromModel(&orders[i]))
	}
	return &AdminListView{
		Orders: views,
		Page: pagination.Page{
			Limit:  page.Limit,
			Offset: page.Offset,
			Total:  total,
		},
	}, nil
}

// UpdateStatus applies an admin transition. Transitions only move
// forward; delivered stamps delivered_at.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*View, error) {
	target, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !order.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, target))
	}

	var deliveredAt *time.Time
	if target == enums.OrderStatusDelivered {
		at := time.Now().UTC()
		deliveredAt = &at
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, target, deliveredAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}

	order, err = s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	view := viewFromModel(order)
	return &view, nil
}

// DeliverDue advances due orders to delivered. Called by the cron sweep.
func (s *service) DeliverDue(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.repo.DeliverDue(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver due orders")
	}
	return count, nil
}

// newOrderNumber yields "ORD-<unix-ms>-<6 char base36>".
func newOrderNumber(now time.Time) string {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(buf[:])%2176782336, 36) // 36^6
	if len(suffix) < 6 {
		suffix = strings.Repeat("0", 6-len(suffix)) + suffix
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(suffix))
}
