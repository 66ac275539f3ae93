package cart

import (
	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the payload for adding an item to the cart.
type AddItemRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gte=1"`
}

// UpdateLineRequest sets a line's absolute quantity; zero removes the line.
type UpdateLineRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// LineView is one cart line joined with its live item row.
type LineView struct {
	CartItemID    uuid.UUID `json:"cart_item_id"`
	ItemID        uuid.UUID `json:"item_id"`
	Name          string    `json:"name"`
	Description   *string   `json:"description,omitempty"`
	Price         float64   `json:"price"`
	ImageURL      *string   `json:"image_url,omitempty"`
	IsAvailable   bool      `json:"is_available"`
	StockQuantity int       `json:"stock_quantity"`
	Quantity      int       `json:"quantity"`
	Subtotal      float64   `json:"subtotal"`
}

// View is the full cart as returned by every cart endpoint. Totals are
// always derived from the live item rows at read time.
type View struct {
	CartID      uuid.UUID  `json:"cart_id"`
	Items       []LineView `json:"items"`
	TotalItems  int        `json:"total_items"`
	TotalAmount float64    `json:"total_amount"`
}

func buildView(cartID uuid.UUID, lines []models.CartItem) *View {
	view := &View{
		CartID: cartID,
		Items:  make([]LineView, 0, len(lines)),
	}
	total := decimal.Zero
	for i := range lines {
		line := &lines[i]
		lv := LineView{
			CartItemID: line.ID,
			ItemID:     line.ItemID,
			Quantity:   line.Quantity,
		}
		if item := line.Item; item != nil {
			subtotal := item.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			price, _ := item.Price.Float64()
			sub, _ := subtotal.Float64()
			lv.Name = item.Name
			lv.Description = item.Description
			lv.Price = price
			lv.ImageURL = item.ImageURL
			lv.IsAvailable = item.IsAvailable
			lv.StockQuantity = item.StockQuantity
			lv.Subtotal = sub
			total = total.Add(subtotal)
		}
		view.Items = append(view.Items, lv)
		view.TotalItems += line.Quantity
	}
	amount, _ := total.Round(2).Float64()
	view.TotalAmount = amount
	return view
}
