package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUID primary keys default to gen_random_uuid() in Postgres; the hooks
// keep inserts working on databases without that default (sqlite tests).

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(_ *gorm.DB) error     { ensureID(&u.ID); return nil }
func (c *Category) BeforeCreate(_ *gorm.DB) error { ensureID(&c.ID); return nil }
func (i *Item) BeforeCreate(_ *gorm.DB) error     { ensureID(&i.ID); return nil }
func (c *Cart) BeforeCreate(_ *gorm.DB) error     { ensureID(&c.ID); return nil }
func (c *CartItem) BeforeCreate(_ *gorm.DB) error { ensureID(&c.ID); return nil }
func (o *Order) BeforeCreate(_ *gorm.DB) error    { ensureID(&o.ID); return nil }

func (o *OrderItem) BeforeCreate(_ *gorm.DB) error { ensureID(&o.ID); return nil }
func (a *Address) BeforeCreate(_ *gorm.DB) error   { ensureID(&a.ID); return nil }
