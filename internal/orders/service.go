package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradepost/internal/broadcast"
	"tradepost/internal/catalog"
	"tradepost/internal/notifications"
	"tradepost/internal/sellers"
	"tradepost/internal/wallet"
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

// Service drives the order lifecycle: creation with inventory take, status
// transitions, and the delivered-order settlement.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	ListOrders(ctx context.Context, input ListOrdersInput) (*OrderPage, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
}

type service struct {
	repo          Repository
	catalog       catalog.Repository
	sellers       sellers.Repository
	wallets       wallet.Repository
	notifications notifications.Repository
	tx            txRunner
	broadcaster   broadcast.Publisher
	metrics       *metrics.EngineMetrics
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the orders service.
func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	sellersRepo sellers.Repository,
	walletRepo wallet.Repository,
	notifs notifications.Repository,
	tx txRunner,
	broadcaster broadcast.Publisher,
	m *metrics.EngineMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil || catalogRepo == nil || sellersRepo == nil || walletRepo == nil || notifs == nil || tx == nil || logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service dependencies are required")
	}
	if broadcaster == nil {
		broadcaster = broadcast.Nop()
	}
	return &service{
		repo:          repo,
		catalog:       catalogRepo,
		sellers:       sellersRepo,
		wallets:       walletRepo,
		notifications: notifs,
		tx:            tx,
		broadcaster:   broadcaster,
		metrics:       m,
		logg:          logg,
		now:           time.Now,
	}, nil
}

// CreateOrder places an order and takes stock for every line inside one
// transaction. Any line that cannot be satisfied rolls the whole order back,
// including stock already taken for earlier lines.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreateOrder(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalog.WithTx(tx)

		for _, item := range input.Items {
			taken, err := catalogRepo.DecrementStock(ctx, item.ProductID, item.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to take stock")
			}
			if taken {
				continue
			}
			exists, err := catalogRepo.Exists(ctx, item.ProductID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
			}
			if !exists {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{"product_id": item.ProductID, "requested": item.Qty})
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			items = append(items, models.OrderItem{
				ProductID:      item.ProductID,
				Qty:            item.Qty,
				UnitPriceCents: item.UnitPriceCents,
			})
		}
		created, err := s.repo.WithTx(tx).CreateOrder(ctx, &models.Order{
			CustomerName:  input.CustomerName,
			CustomerPhone: input.CustomerPhone,
			RegionID:      input.RegionID,
			Address:       input.Address,
			TotalCents:    input.TotalCents,
			Status:        enums.OrderStatusPending,
			Items:         items,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create order")
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrdersCreated()
	s.broadcaster.Publish(ctx, broadcast.TopicNewOrder, broadcast.NewOrderEvent{
		OrderID: order.ID.String(),
		Status:  order.Status.String(),
	})

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("order created: %d items, total %s", len(order.Items), money.Format(order.TotalCents)))
	return order, nil
}

func validateCreateOrder(input CreateOrderInput) error {
	if input.CustomerName == "" || input.CustomerPhone == "" || input.Address == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name, phone, and address are required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	var sum int64
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if seen[item.ProductID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
		seen[item.ProductID] = true
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
		sum += int64(item.Qty) * item.UnitPriceCents
	}
	if sum != input.TotalCents {
		return pkgerrors.New(pkgerrors.CodeValidation, "total does not match order items").
			WithDetails(map[string]any{
				"expected": money.Format(sum),
				"received": money.Format(input.TotalCents),
			})
	}
	return nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	return detail, nil
}

func (s *service) ListOrders(ctx context.Context, input ListOrdersInput) (*OrderPage, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	limit := pagination.NormalizeLimit(input.Limit)

	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(input.Limit), cursor, input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}

	page := &OrderPage{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

// UpdateStatus applies one transition of the order status machine. Moving to
// delivered runs settlement in the same transaction; the compare-and-set on
// the status row guarantees settlement happens at most once per order no
// matter how many delivery calls race or repeat.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if !input.NextStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	var (
		order         *models.Order
		settled       bool
		creditedCents int64
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
		}
		if !current.Status.CanTransition(input.NextStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").
				WithDetails(map[string]any{"from": current.Status, "to": input.NextStatus})
		}

		if input.NextStatus == enums.OrderStatusDelivered {
			deliveredAt := s.now()
			won, err := repo.MarkDelivered(ctx, input.OrderID, deliveredAt)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to mark order delivered")
			}
			if !won {
				// Someone else completed delivery (or cancelled) between
				// our read and the update. Re-read to tell the two apart.
				reread, err := repo.FindByID(ctx, input.OrderID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload order")
				}
				if reread.Status != enums.OrderStatusDelivered {
					return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently").
						WithDetails(map[string]any{"status": reread.Status})
				}
				order = reread
				return nil
			}

			credited, err := s.settle(ctx, tx, current)
			if err != nil {
				return err
			}
			settled = true
			creditedCents = credited

			current.Status = enums.OrderStatusDelivered
			current.DeliveredAt = &deliveredAt
			order = current
			return nil
		}

		moved, err := repo.TransitionStatus(ctx, input.OrderID, current.Status, input.NextStatus)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		current.Status = input.NextStatus
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		s.metrics.ObserveSettlement(creditedCents)
	}
	s.broadcaster.Publish(ctx, broadcast.TopicOrderUpdate(order.ID.String()), broadcast.OrderUpdateEvent{
		OrderID: order.ID.String(),
		Status:  order.Status.String(),
	})

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("order status updated to %s", order.Status))
	return order, nil
}

// settle credits each seller's wallet with their net earnings from the
// order. Gross amounts accumulate in integer cents per seller; commission
// applies once per seller with half-to-even rounding, so a seller's credit
// never depends on how their items were split across lines.
func (s *service) settle(ctx context.Context, tx *gorm.DB, order *models.Order) (int64, error) {
	lines, err := s.repo.WithTx(tx).SettlementLines(ctx, order.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load settlement lines")
	}

	grossBySeller := make(map[uuid.UUID]int64)
	for _, line := range lines {
		if line.SellerUserID == nil {
			// House inventory settles to the platform, not a wallet.
			continue
		}
		grossBySeller[*line.SellerUserID] += int64(line.Qty) * line.UnitPriceCents
	}

	sellerIDs := make([]uuid.UUID, 0, len(grossBySeller))
	for id := range grossBySeller {
		sellerIDs = append(sellerIDs, id)
	}
	sort.Slice(sellerIDs, func(i, j int) bool { return sellerIDs[i].String() < sellerIDs[j].String() })

	sellersRepo := s.sellers.WithTx(tx)
	walletRepo := s.wallets.WithTx(tx)
	notifsRepo := s.notifications.WithTx(tx)

	var creditedTotal int64
	for _, sellerID := range sellerIDs {
		gross := grossBySeller[sellerID]
		rate, err := sellersRepo.CommissionRate(ctx, sellerID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load commission rate")
		}
		net := money.NetAfterCommission(gross, rate)
		if net <= 0 {
			continue
		}

		credited, err := walletRepo.Credit(ctx, sellerID, net)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to credit wallet")
		}
		if !credited {
			return 0, pkgerrors.New(pkgerrors.CodeDependency, "seller user missing for settlement").
				WithDetails(map[string]any{"seller_user_id": sellerID})
		}
		creditedTotal += net

		_, err = notifsRepo.Create(ctx, &models.Notification{
			UserID:  sellerID,
			Type:    enums.NotificationTypeEarnings,
			Title:   "Earnings credited",
			Message: fmt.Sprintf("You earned %s from order %s.", money.Format(net), order.ID),
		})
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record earnings notification")
		}
	}

	return creditedTotal, nil
}
