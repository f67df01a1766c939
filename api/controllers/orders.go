package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradepost/api/responses"
	"tradepost/api/validators"
	"tradepost/internal/orders"
	"tradepost/pkg/enums"
	pkgerrors "tradepost/pkg/errors"
	"tradepost/pkg/logger"
	"tradepost/pkg/money"
	"tradepost/pkg/pagination"
)

type createOrderItemRequest struct {
	ID       string          `json:"id" validate:"required,uuid"`
	Quantity int             `json:"quantity" validate:"required,min=1"`
	Price    decimal.Decimal `json:"price"`
}

type createOrderRequest struct {
	CustomerName  string                   `json:"customer_name" validate:"required,max=200"`
	CustomerPhone string                   `json:"customer_phone" validate:"required,max=32"`
	RegionID      int                      `json:"region_id" validate:"required,min=1"`
	Address       string                   `json:"address" validate:"required,max=500"`
	Items         []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount   decimal.Decimal          `json:"total_amount"`
}

// CreateOrder places a new order. Amounts arrive as decimal strings and are
// converted to integer cents at this boundary.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totalCents, err := money.FromDecimal(req.TotalAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "total_amount must have at most two decimal places"))
			return
		}

		input := orders.CreateOrderInput{
			CustomerName:  validators.SanitizeString(req.CustomerName, 200),
			CustomerPhone: validators.SanitizeString(req.CustomerPhone, 32),
			RegionID:      req.RegionID,
			Address:       validators.SanitizeString(req.Address, 500),
			TotalCents:    totalCents,
		}
		for _, item := range req.Items {
			productID, err := uuid.Parse(item.ID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id must be a valid uuid"))
				return
			}
			priceCents, err := money.FromDecimal(item.Price)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item price must have at most two decimal places"))
				return
			}
			input.Items = append(input.Items, orders.OrderItemInput{
				ProductID:      productID,
				Qty:            item.Quantity,
				UnitPriceCents: priceCents,
			})
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder returns one order with its lines and product names.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		detail, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateOrderStatus applies one admin-driven transition of the order status
// machine.
func UpdateOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		var req updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orders.UpdateStatusInput{
			OrderID:    orderID,
			NextStatus: status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns the admin order listing, newest first.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.ListOrdersInput{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status"))
				return
			}
			input.Status = &status
		}

		page, err := svc.ListOrders(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
