package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tradepost/pkg/db/models"
	pkgerrors "tradepost/pkg/errors"
	"tradepost/pkg/money"
)

// Service exposes seller-facing catalog management.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, sellerUserID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	ListSellerProducts(ctx context.Context, sellerUserID uuid.UUID) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository is required")
	}
	return &service{repo: repo}, nil
}

// CreateProductInput carries a new listing from an approved seller.
type CreateProductInput struct {
	SellerUserID uuid.UUID
	Name         string
	Price        decimal.Decimal
	Stock        int
}

// UpdateProductInput applies partial edits. Nil fields are left untouched.
type UpdateProductInput struct {
	Name  *string
	Price *decimal.Decimal
	Stock *int
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if input.SellerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	priceCents, err := money.FromDecimal(input.Price)
	if err != nil || priceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative amount with at most two decimal places")
	}

	sellerID := input.SellerUserID
	product := &models.Product{
		SellerUserID: &sellerID,
		Name:         input.Name,
		PriceCents:   priceCents,
		Stock:        input.Stock,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create product")
	}
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, sellerUserID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	if product.SellerUserID == nil || *product.SellerUserID != sellerUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another seller")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = *input.Name
	}
	if input.Price != nil {
		priceCents, err := money.FromDecimal(*input.Price)
		if err != nil || priceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative amount with at most two decimal places")
		}
		updates["price_cents"] = priceCents
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		updates["stock"] = *input.Stock
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.repo.Update(ctx, productID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update product")
	}
	updated, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to reload product")
	}
	return updated, nil
}

func (s *service) ListSellerProducts(ctx context.Context, sellerUserID uuid.UUID) ([]models.Product, error) {
	products, err := s.repo.ListBySeller(ctx, sellerUserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list products")
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load product")
	}
	return product, nil
}
