package cart

import (
	"context"
	"time"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) Store {
	return &Repository{db: tx}
}

// GetOrCreate returns the user's cart, creating the row on first use.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Where(models.Cart{UserID: userID}).
		FirstOrCreate(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// ListLines loads the cart's lines with their live item rows, oldest first.
func (r *Repository) ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var lines []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("cart_id = ?", cartID).
		Order("added_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// FindLine loads a single line scoped to the cart.
func (r *Repository) FindLine(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Item").
		First(&line, "id = ? AND cart_id = ?", lineID, cartID).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindLineByItem loads the line for an item, if one exists in the cart.
func (r *Repository) FindLineByItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var line models.CartItem
	err := r.db.WithContext(ctx).
		First(&line, "cart_id = ? AND item_id = ?", cartID, itemID).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindItem loads the live catalog row a cart mutation is validated against.
func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementLine adds qty to an existing line, guarded so the resulting
// quantity never exceeds maxQuantity. Reports whether a row was updated,
// which is false both when no line exists and when the guard rejects it.
func (r *Repository) IncrementLine(ctx context.Context, cartID, itemID uuid.UUID, qty, maxQuantity int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("cart_id = ? AND item_id = ? AND quantity + ? <= ?", cartID, itemID, qty, maxQuantity).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// InsertLine creates a new line.
func (r *Repository) InsertLine(ctx context.Context, line *models.CartItem) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// SetLineQuantity overwrites the quantity of a line.
func (r *Repository) SetLineQuantity(ctx context.Context, lineID uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", lineID).
		Update("quantity", qty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteLine removes a line scoped to the cart.
func (r *Repository) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", lineID, cartID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Clear removes every line from the cart. The cart row persists.
func (r *Repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

// PruneLinesBefore deletes lines last touched before the cutoff. Used by
// the retention sweep to drop abandoned carts.
func (r *Repository) PruneLinesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("added_at < ?", cutoff).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}
