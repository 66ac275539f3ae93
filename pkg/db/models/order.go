package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshcart/freshcart-backend/pkg/enums"
)

// Order is an immutable record of a completed checkout. TotalAmount is
// frozen at creation; item rows are snapshots decoupled from the live
// catalog. DeliverAfter drives the scheduled delivery transition.
type Order struct {
	ID           uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber  string            `gorm:"column:order_number;not null;uniqueIndex"`
	TotalAmount  decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status       enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	AddressID    *uuid.UUID        `gorm:"column:address_id;type:uuid"`
	DeliverAfter time.Time         `gorm:"column:deliver_after;not null"`
	DeliveredAt  *time.Time        `gorm:"column:delivered_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}
