package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshcart/freshcart-backend/pkg/db"
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store is the persistence surface the cart service operates on.
type Store interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	FindLine(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartItem, error)
	FindLineByItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error)
	IncrementLine(ctx context.Context, cartID, itemID uuid.UUID, qty, maxQuantity int) (bool, error)
	InsertLine(ctx context.Context, line *models.CartItem) error
	SetLineQuantity(ctx context.Context, lineID uuid.UUID, qty int) error
	DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	PruneLinesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	WithTx(tx *gorm.DB) Store
}

// Service exposes the caller-scoped cart operations. Every mutation
// returns the recomputed cart so clients never need a second round trip.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*View, error)
	UpdateLine(ctx context.Context, userID, lineID uuid.UUID, req UpdateLineRequest) (*View, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*View, error)
	Clear(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo Store
	tx   txRunner
}

// ServiceParams bundles the cart service dependencies.
type ServiceParams struct {
	Repo Store
	Tx   txRunner
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: params.Repo, tx: params.Tx}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.view(ctx, cart.ID)
}

// AddItem creates or increments the item's line. The increment runs as a
// guarded update inside one transaction so two concurrent adds cannot
// push the line past the available stock.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*View, error) {
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	item, err := s.repo.FindItem(ctx, req.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if !item.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item is currently unavailable")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updated, err := repo.IncrementLine(ctx, cart.ID, item.ID, req.Quantity, item.StockQuantity)
		if err != nil {
			return err
		}
		if updated {
			return nil
		}

		// Either no line exists yet or the stock guard rejected the
		// increment; an existing line means the latter.
		if _, err := repo.FindLineByItem(ctx, cart.ID, item.ID); err == nil {
			return insufficientStock(item, req.Quantity)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if req.Quantity > item.StockQuantity {
			return insufficientStock(item, req.Quantity)
		}

		line := &models.CartItem{CartID: cart.ID, ItemID: item.ID, Quantity: req.Quantity}
		if err := repo.InsertLine(ctx, line); err != nil {
			if db.IsUniqueViolation(err, "") {
				// Lost the insert race; fall back to the guarded increment.
				updated, retryErr := repo.IncrementLine(ctx, cart.ID, item.ID, req.Quantity, item.StockQuantity)
				if retryErr != nil {
					return retryErr
				}
				if !updated {
					return insufficientStock(item, req.Quantity)
				}
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return s.view(ctx, cart.ID)
}

// UpdateLine sets the absolute quantity. Zero removes the line.
func (s *service) UpdateLine(ctx context.Context, userID, lineID uuid.UUID, req UpdateLineRequest) (*View, error) {
	if req.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	line, err := s.repo.FindLine(ctx, cart.ID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	if req.Quantity == 0 {
		if err := s.repo.DeleteLine(ctx, cart.ID, line.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
		}
		return s.view(ctx, cart.ID)
	}

	if line.Item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item no longer exists")
	}
	if req.Quantity > line.Item.StockQuantity {
		return nil, insufficientStock(line.Item, req.Quantity)
	}
	if err := s.repo.SetLineQuantity(ctx, line.ID, req.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.view(ctx, cart.ID)
}

func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.DeleteLine(ctx, cart.ID, lineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.view(ctx, cart.ID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) (*View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.Clear(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return s.view(ctx, cart.ID)
}

func (s *service) view(ctx context.Context, cartID uuid.UUID) (*View, error) {
	lines, err := s.repo.ListLines(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
	}
	return buildView(cartID, lines), nil
}

func insufficientStock(item *models.Item, requested int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
		WithDetails(map[string]any{
			"insufficient_stock": []map[string]any{{
				"name":      item.Name,
				"requested": requested,
				"available": item.StockQuantity,
			}},
		})
}
