package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradepost/pkg/db/models"
	"tradepost/pkg/enums"
	"tradepost/pkg/pagination"
)

// Repository owns wallet balances and payout rows. Credit and
// DebitIfSufficient are the only writers of users.wallet_balance_cents, and
// both are single UPDATE statements so concurrent movements serialize on the
// user row instead of racing a read-modify-write.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Credit(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error)
	DebitIfSufficient(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	CreatePayout(ctx context.Context, payout *models.PayoutRequest) (*models.PayoutRequest, error)
	FindPayoutByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error)
	ListPayoutsBySeller(ctx context.Context, sellerUserID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PayoutRequest, error)
	MarkPayoutResolved(ctx context.Context, id uuid.UUID, status enums.PayoutStatus, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Credit(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_balance_cents", gorm.Expr("wallet_balance_cents + ?", amountCents))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DebitIfSufficient removes amountCents only when the balance covers it. The
// guard sits in the WHERE clause, so two concurrent debits can never spend
// the same cents. Returns false when no row matched (missing user or
// insufficient balance).
func (r *repository) DebitIfSufficient(ctx context.Context, userID uuid.UUID, amountCents int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND wallet_balance_cents >= ?", userID, amountCents).
		Update("wallet_balance_cents", gorm.Expr("wallet_balance_cents - ?", amountCents))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("wallet_balance_cents").
		Where("id = ?", userID).
		First(&user).Error
	if err != nil {
		return 0, err
	}
	return user.WalletBalanceCents, nil
}

func (r *repository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.PayoutRequest) (*models.PayoutRequest, error) {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(payout).Error; err != nil {
		return nil, err
	}
	return payout, nil
}

func (r *repository) FindPayoutByID(ctx context.Context, id uuid.UUID) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&payout).Error
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListPayoutsBySeller(ctx context.Context, sellerUserID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.PayoutRequest, error) {
	q := r.db.WithContext(ctx).
		Where("seller_user_id = ?", sellerUserID).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var payouts []models.PayoutRequest
	if err := q.Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// MarkPayoutResolved flips a pending payout to its terminal status. The
// WHERE clause pins the pending state so two admins resolving the same
// payout cannot both win.
func (r *repository) MarkPayoutResolved(ctx context.Context, id uuid.UUID, status enums.PayoutStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PayoutRequest{}).
		Where("id = ? AND status = ?", id, enums.PayoutStatusPending).
		Updates(map[string]any{"status": status, "resolved_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
