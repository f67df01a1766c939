package models

import (
	"time"

	"github.com/google/uuid"

	"tradepost/pkg/enums"
)

// User is the canonical identity row. WalletBalanceCents is mutated by
// exactly two call sites: the settlement credit and the payout debit, both
// single-statement UPDATEs that serialize on this row.
type User struct {
	ID                 uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email              string         `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	Name               string         `gorm:"column:name;not null" json:"name"`
	Role               enums.UserRole `gorm:"column:role;type:text;not null;default:'buyer'" json:"role"`
	WalletBalanceCents int64          `gorm:"column:wallet_balance_cents;not null;default:0" json:"wallet_balance_cents"`
	LoyaltyPoints      int            `gorm:"column:loyalty_points;not null;default:0" json:"loyalty_points"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
