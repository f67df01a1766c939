package models

import (
	"time"

	"github.com/google/uuid"

	"tradepost/pkg/enums"
)

// PayoutRequest records a seller withdrawal. The row is inserted in the same
// transaction as the wallet debit, so a pending payout always has its amount
// already removed from the balance.
type PayoutRequest struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SellerUserID uuid.UUID          `gorm:"column:seller_user_id;type:uuid;not null;index" json:"seller_user_id"`
	AmountCents  int64              `gorm:"column:amount_cents;not null" json:"amount_cents"`
	Method       enums.PayoutMethod `gorm:"column:method;type:text;not null" json:"method"`
	Status       enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	ResolvedAt   *time.Time         `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
