package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	"github.com/freshcart/freshcart-backend/pkg/pagination"
)

// CategoryView is the transport shape for a catalog category.
type CategoryView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// ItemView is the transport shape for a catalog item. Price is rendered
// as a float at the edge; decimals stay exact inside the service.
type ItemView struct {
	ID            uuid.UUID  `json:"id"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Name          string     `json:"name"`
	Description   *string    `json:"description,omitempty"`
	Price         float64    `json:"price"`
	StockQuantity int        `json:"stock_quantity"`
	IsAvailable   bool       `json:"is_available"`
	ImageURL      *string    `json:"image_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ItemListView bundles a page of items with its pagination window.
type ItemListView struct {
	Items []ItemView      `json:"items"`
	Page  pagination.Page `json:"page"`
}

// CreateCategoryRequest is the admin payload for a new category.
type CreateCategoryRequest struct {
	Name         string `json:"name" validate:"required,max=120"`
	DisplayOrder int    `json:"display_order"`
}

// UpdateCategoryRequest carries optional category mutations.
type UpdateCategoryRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,max=120"`
	DisplayOrder *int    `json:"display_order,omitempty"`
}

// CreateItemRequest is the admin payload for a new item.
type CreateItemRequest struct {
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Name          string     `json:"name" validate:"required,max=200"`
	Description   *string    `json:"description,omitempty"`
	Price         float64    `json:"price" validate:"required,gt=0"`
	StockQuantity int        `json:"stock_quantity" validate:"gte=0"`
	IsAvailable   *bool      `json:"is_available,omitempty"`
}

// UpdateItemRequest carries optional item mutations.
type UpdateItemRequest struct {
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Name          *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Description   *string    `json:"description,omitempty"`
	Price         *float64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	StockQuantity *int       `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	IsAvailable   *bool      `json:"is_available,omitempty"`
}

// UpdateStockRequest sets the absolute stock level.
type UpdateStockRequest struct {
	StockQuantity int `json:"stock_quantity" validate:"gte=0"`
}

func categoryView(c *models.Category) CategoryView {
	return CategoryView{
		ID:           c.ID,
		Name:         c.Name,
		DisplayOrder: c.DisplayOrder,
		CreatedAt:    c.CreatedAt,
	}
}

func itemView(i *models.Item) ItemView {
	price, _ := i.Price.Float64()
	return ItemView{
		ID:            i.ID,
		CategoryID:    i.CategoryID,
		Name:          i.Name,
		Description:   i.Description,
		Price:         price,
		StockQuantity: i.StockQuantity,
		IsAvailable:   i.IsAvailable,
		ImageURL:      i.ImageURL,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
