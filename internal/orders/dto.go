package orders

import (
	"github.com/google/uuid"

	"tradepost/pkg/db/models"
	"tradepost/pkg/enums"
)

// OrderItemInput is one purchased line at creation time.
type OrderItemInput struct {
	ProductID      uuid.UUID
	Qty            int
	UnitPriceCents int64
}

// CreateOrderInput carries everything needed to place an order. TotalCents
// is the client-computed total and must equal the sum of the lines.
type CreateOrderInput struct {
	CustomerName  string
	CustomerPhone string
	RegionID      int
	Address       string
	Items         []OrderItemInput
	TotalCents    int64
}

// UpdateStatusInput carries an admin status change request.
type UpdateStatusInput struct {
	OrderID    uuid.UUID
	NextStatus enums.OrderStatus
}

// OrderItemDetail is an order line joined with its product's current name.
type OrderItemDetail struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Qty            int       `json:"qty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	LineTotalCents int64     `json:"line_total_cents"`
}

// OrderDetail is the full read model for a single order.
type OrderDetail struct {
	Order models.Order      `json:"order"`
	Items []OrderItemDetail `json:"items"`
}

// ListOrdersInput carries admin listing options.
type ListOrdersInput struct {
	Limit  int
	Cursor string
	Status *enums.OrderStatus
}

// OrderPage is one slice of the admin order listing, newest first.
type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// SettlementLine is an order line joined with the owning seller, the unit
// settlement works on.
type SettlementLine struct {
	ProductID      uuid.UUID
	SellerUserID   *uuid.UUID
	Qty            int
	UnitPriceCents int64
}
