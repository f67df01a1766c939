package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable listing. SellerUserID is nil for house inventory,
// which never settles into a wallet.
type Product struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SellerUserID *uuid.UUID `gorm:"column:seller_user_id;type:uuid" json:"seller_user_id,omitempty"`
	Name         string     `gorm:"column:name;not null" json:"name"`
	PriceCents   int64      `gorm:"column:price_cents;not null" json:"price_cents"`
	Stock        int        `gorm:"column:stock;not null;default:0" json:"stock"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
