package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seller holds marketplace-side seller state. CommissionRate is a fraction
// in [0,1]; settlement reads it and never writes it.
type Seller struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	ShopName       string          `gorm:"column:shop_name;not null" json:"shop_name"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,4);not null;default:0.10" json:"commission_rate"`
	Approved       bool            `gorm:"column:approved;not null;default:false" json:"approved"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
