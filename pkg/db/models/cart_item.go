package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one line in a cart. At most one line exists per
// (cart_id, item_id); adding the same item again increments quantity.
type CartItem struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID   uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_item"`
	ItemID   uuid.UUID `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_item"`
	Quantity int       `gorm:"column:quantity;not null"`
	AddedAt  time.Time `gorm:"column:added_at;autoCreateTime"`

	Item *Item `gorm:"foreignKey:ItemID"`
}
