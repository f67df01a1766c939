package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tradepost/pkg/db/models"
	"tradepost/pkg/enums"
	"tradepost/pkg/pagination"
)

// Repository persists orders. Status moves go through TransitionStatus and
// MarkDelivered, both compare-and-set UPDATEs, never through a plain Save.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor, status *enums.OrderStatus) ([]models.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	SettlementLines(ctx context.Context, orderID uuid.UUID) ([]SettlementLine, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*OrderDetail, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	var items []OrderItemDetail
	err = r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.id, order_items.product_id, products.name AS product_name, order_items.qty, order_items.unit_price_cents").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", id).
		Order("order_items.created_at ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].LineTotalCents = int64(items[i].Qty) * items[i].UnitPriceCents
	}

	return &OrderDetail{Order: order, Items: items}, nil
}

func (r *repository) List(ctx context.Context, limit int, cursor *pagination.Cursor, status *enums.OrderStatus) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionStatus moves id from one status to another only when the row
// still holds the expected from status. Returns false when the row has moved
// under us.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkDelivered flips the order to delivered exactly once. The WHERE clause
// only matches statuses delivery is reachable from, so of any number of
// concurrent delivery calls exactly one sees a row update and runs
// settlement, and a concurrently cancelled order stays cancelled.
func (r *repository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusProcessing,
			enums.OrderStatusShipped,
		}).
		Updates(map[string]any{
			"status":       enums.OrderStatusDelivered,
			"delivered_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SettlementLines(ctx context.Context, orderID uuid.UUID) ([]SettlementLine, error) {
	var lines []SettlementLine
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id, products.seller_user_id, order_items.qty, order_items.unit_price_cents").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", orderID).
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}
