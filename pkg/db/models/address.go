package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a delivery address in a user's address book. At most one
// row per user carries is_default = true.
type Address struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Name         string    `gorm:"type:text;not null"`
	Phone        string    `gorm:"type:text;not null"`
	AddressLine1 string    `gorm:"column:address_line1;not null"`
	AddressLine2 *string   `gorm:"column:address_line2"`
	City         string    `gorm:"type:text;not null"`
	State        string    `gorm:"type:text;not null"`
	Pincode      string    `gorm:"type:text;not null"`
	IsDefault    bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
