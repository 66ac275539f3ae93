package orders

import (
	"time"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/enums"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutRequest is the payload for converting the cart into an order.
type CheckoutRequest struct {
	DeliveryAddressID *uuid.UUID `json:"delivery_address_id,omitempty"`
}

// UpdateStatusRequest carries the admin status transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ItemView is one snapshot line of a placed order.
type ItemView struct {
	ItemID          *uuid.UUID `json:"item_id,omitempty"`
	ItemName        string     `json:"item_name"`
	Quantity        int        `json:"quantity"`
	PriceAtPurchase float64    `json:"price_at_purchase"`
	Subtotal        float64    `json:"subtotal"`
}

// View is the transport shape for a single order.
type View struct {
	ID                uuid.UUID         `json:"id"`
	OrderNumber       string            `json:"order_number"`
	UserID            uuid.UUID         `json:"user_id"`
	TotalAmount       float64           `json:"total_amount"`
	Status            enums.OrderStatus `json:"status"`
	AddressID         *uuid.UUID        `json:"address_id,omitempty"`
	EstimatedDelivery time.Time         `json:"estimated_delivery"`
	DeliveredAt       *time.Time        `json:"delivered_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []ItemView        `json:"items"`
}

// CheckoutView is the 201 response of a successful checkout.
type CheckoutView struct {
	Order View       `json:"order"`
	Items []ItemView `json:"items"`
}

// HistoryView is the caller's order history.
type HistoryView struct {
	Orders []View `json:"orders"`
	Count  int    `json:"count"`
}

// AdminListView is the paged admin listing.
type AdminListView struct {
	Orders []View          `json:"orders"`
	Page   pagination.Page `json:"page"`
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func itemViewFromModel(item *models.OrderItem) ItemView {
	price, _ := item.PriceAtPurchase.Float64()
	subtotal, _ := item.PriceAtPurchase.Mul(decimalFromInt(item.Quantity)).Round(2).Float64()
	return ItemView{
		ItemID:          item.ItemID,
		ItemName:        item.ItemName,
		Quantity:        item.Quantity,
		PriceAtPurchase: price,
		Subtotal:        subtotal,
	}
}

func viewFromModel(order *models.Order) View {
	total, _ := order.TotalAmount.Float64()
	view := View{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserID:            order.UserID,
		TotalAmount:       total,
		Status:            order.Status,
		AddressID:         order.AddressID,
		EstimatedDelivery: order.DeliverAfter,
		DeliveredAt:       order.DeliveredAt,
		CreatedAt:         order.CreatedAt,
		Items:             make([]ItemView, 0, len(order.Items)),
	}
	for i := range order.Items {
		view.Items = append(view.Items, itemViewFromModel(&order.Items[i]))
	}
	return view
}
