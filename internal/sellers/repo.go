package sellers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradepost/pkg/db/models"
)

// DefaultCommissionRate applies when a product's owner has no seller profile
// row. Kept as a decimal fraction so settlement math stays exact.
var DefaultCommissionRate = decimal.RequireFromString("0.10")

// Repository exposes seller profile reads used by settlement and payouts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, seller *models.Seller) (*models.Seller, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Seller, error)
	CommissionRate(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sellers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	if seller.ID == uuid.Nil {
		seller.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(seller).Error; err != nil {
		return nil, err
	}
	return seller, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&seller).Error
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

// CommissionRate returns the seller's configured rate, falling back to
// DefaultCommissionRate when no profile row exists.
func (r *repository) CommissionRate(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	seller, err := r.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DefaultCommissionRate, nil
		}
		return decimal.Zero, err
	}
	return seller.CommissionRate, nil
}
