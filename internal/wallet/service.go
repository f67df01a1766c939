package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradepost/internal/notifications"
	"tradepost/pkg/db/models"
	"tradepost/pkg/enums"
	pkgerrors "tradepost/pkg/errors"
	"tradepost/pkg/logger"
	"tradepost/pkg/metrics"
	"tradepost/pkg/money"
	"tradepost/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes payout operations for sellers and admins.
type Service interface {
	RequestPayout(ctx context.Context, input RequestPayoutInput) (*models.PayoutRequest, error)
	ListPayouts(ctx context.Context, sellerUserID uuid.UUID, input ListPayoutsInput) (*PayoutPage, error)
	ResolvePayout(ctx context.Context, input ResolvePayoutInput) (*models.PayoutRequest, error)
}

// PayoutDecision is the admin action on a pending payout.
type PayoutDecision string

const (
	PayoutDecisionComplete PayoutDecision = "complete"
	PayoutDecisionReject   PayoutDecision = "reject"
)

// RequestPayoutInput carries a seller withdrawal request.
type RequestPayoutInput struct {
	SellerUserID uuid.UUID
	Amount       decimal.Decimal
	Method       enums.PayoutMethod
}

// ListPayoutsInput carries payout history query options.
type ListPayoutsInput struct {
	Limit  int
	Cursor string
}

// PayoutPage is one slice of a seller's payout history, newest first.
type PayoutPage struct {
	Payouts    []models.PayoutRequest `json:"payouts"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

// ResolvePayoutInput carries the admin decision for a pending payout.
type ResolvePayoutInput struct {
	PayoutID uuid.UUID
	Decision PayoutDecision
}

type service struct {
	repo          Repository
	notifications notifications.Repository
	tx            txRunner
	metrics       *metrics.EngineMetrics
	logg          *logger.Logger
	minCents      int64
	now           func() time.Time
}

// NewService builds the wallet service. minCents is the smallest payout the
// platform accepts.
func NewService(repo Repository, notifs notifications.Repository, tx txRunner, m *metrics.EngineMetrics, logg *logger.Logger, minCents int64) (Service, error) {
	if repo == nil || notifs == nil || tx == nil || logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wallet service dependencies are required")
	}
	return &service{
		repo:          repo,
		notifications: notifs,
		tx:            tx,
		metrics:       m,
		logg:          logg,
		minCents:      minCents,
		now:           time.Now,
	}, nil
}

// RequestPayout debits the seller's wallet and records the payout in one
// transaction. The debit is conditional on the balance covering the amount,
// so a wallet can never go negative no matter how many requests race.
func (s *service) RequestPayout(ctx context.Context, input RequestPayoutInput) (*models.PayoutRequest, error) {
	if input.SellerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller is required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payout method")
	}
	amountCents, err := money.FromDecimal(input.Amount)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must have at most two decimal places")
	}
	if amountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if amountCents < s.minCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount is below the minimum payout").
			WithDetails(map[string]any{"min_amount": money.Format(s.minCents)})
	}

	var payout *models.PayoutRequest
	denied := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ok, err := repo.DebitIfSufficient(ctx, input.SellerUserID, amountCents)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to debit wallet")
		}
		if !ok {
			exists, err := repo.UserExists(ctx, input.SellerUserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load seller")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
			}
			denied = true
			balance, err := repo.Balance(ctx, input.SellerUserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load balance")
			}
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "wallet balance does not cover the requested amount").
				WithDetails(map[string]any{
					"balance":   money.Format(balance),
					"requested": money.Format(amountCents),
				})
		}

		payout, err = repo.CreatePayout(ctx, &models.PayoutRequest{
			SellerUserID: input.SellerUserID,
			AmountCents:  amountCents,
			Method:       input.Method,
			Status:       enums.PayoutStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record payout")
		}
		return nil
	})
	if err != nil {
		if denied {
			s.metrics.IncPayoutDenied()
		}
		return nil, err
	}

	s.metrics.IncPayoutRequested()
	ctx = s.logg.WithSellerID(ctx, input.SellerUserID.String())
	s.logg.Info(ctx, fmt.Sprintf("payout requested: %s via %s", money.Format(amountCents), input.Method))
	return payout, nil
}

func (s *service) ListPayouts(ctx context.Context, sellerUserID uuid.UUID, input ListPayoutsInput) (*PayoutPage, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Limit)

	rows, err := s.repo.ListPayoutsBySeller(ctx, sellerUserID, pagination.LimitWithBuffer(input.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list payouts")
	}

	page := &PayoutPage{Payouts: rows}
	if len(rows) > limit {
		page.Payouts = rows[:limit]
		last := page.Payouts[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// ResolvePayout completes or rejects a pending payout. A rejection returns
// the debited amount to the seller's wallet in the same transaction.
func (s *service) ResolvePayout(ctx context.Context, input ResolvePayoutInput) (*models.PayoutRequest, error) {
	if input.Decision != PayoutDecisionComplete && input.Decision != PayoutDecisionReject {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be complete or reject")
	}

	status := enums.PayoutStatusCompleted
	if input.Decision == PayoutDecisionReject {
		status = enums.PayoutStatusRejected
	}

	var payout *models.PayoutRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindPayoutByID(ctx, input.PayoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load payout")
		}
		if found.Status != enums.PayoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already resolved").
				WithDetails(map[string]any{"status": found.Status})
		}

		resolvedAt := s.now()
		won, err := repo.MarkPayoutResolved(ctx, input.PayoutID, status, resolvedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to resolve payout")
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already resolved")
		}

		if status == enums.PayoutStatusRejected {
			ok, err := repo.Credit(ctx, found.SellerUserID, found.AmountCents)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to refund wallet")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeDependency, "seller wallet missing for refund")
			}
		}

		title := "Payout completed"
		message := fmt.Sprintf("Your payout of %s has been sent via %s.", money.Format(found.AmountCents), found.Method)
		if status == enums.PayoutStatusRejected {
			title = "Payout rejected"
			message = fmt.Sprintf("Your payout of %s was rejected and the amount returned to your wallet.", money.Format(found.AmountCents))
		}
		_, err = s.notifications.WithTx(tx).Create(ctx, &models.Notification{
			UserID:  found.SellerUserID,
			Type:    enums.NotificationTypePayout,
			Title:   title,
			Message: message,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record payout notification")
		}

		found.Status = status
		found.ResolvedAt = &resolvedAt
		payout = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}
