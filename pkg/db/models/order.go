package models

import (
	"time"

	"github.com/google/uuid"

	"tradepost/pkg/enums"
)

// Order is created once in pending status; afterwards only the status (and
// delivered_at) move, through the transition table.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerName  string            `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerPhone string            `gorm:"column:customer_phone;not null" json:"customer_phone"`
	RegionID      int               `gorm:"column:region_id;not null" json:"region_id"`
	Address       string            `gorm:"column:address;not null" json:"address"`
	TotalCents    int64             `gorm:"column:total_cents;not null" json:"total_cents"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	DeliveredAt   *time.Time        `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
