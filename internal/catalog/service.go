package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
)

// Service exposes product catalog management.
type Service interface {
	Create(ctx context.Context, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Get(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	List(ctx context.Context, includeInactive bool) ([]models.Product, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name              string
	Kind              enums.ProductKind
	Price             decimal.Decimal
	FreeAmountCeiling *decimal.Decimal
	Stock             *int
	IsActive          bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name              *string
	Price             *decimal.Decimal
	FreeAmountCeiling *decimal.Decimal
	Stock             *int
	ClearStock        bool
	IsActive          *bool
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	kind := input.Kind
	if kind == "" {
		kind = enums.ProductKindStandard
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid product kind %q", kind))
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
	}
	if kind == enums.ProductKindFreeAmount && !input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free-amount products carry no list price")
	}
	if input.FreeAmountCeiling != nil && !input.FreeAmountCeiling.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free-amount ceiling must be positive")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		Name:              name,
		Kind:              kind,
		Price:             input.Price.Round(2),
		FreeAmountCeiling: input.FreeAmountCeiling,
		Stock:             input.Stock,
		IsActive:          input.IsActive,
	}
	return s.repo.Create(ctx, product)
}

func (s *service) Update(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		product.Name = name
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price cannot be negative")
		}
		if product.Donation() && !input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "free-amount products carry no list price")
		}
		product.Price = input.Price.Round(2)
	}
	if input.FreeAmountCeiling != nil {
		if !input.FreeAmountCeiling.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "free-amount ceiling must be positive")
		}
		product.FreeAmountCeiling = input.FreeAmountCeiling
	}
	if input.ClearStock {
		product.Stock = nil
	} else if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.repo.FindByID(ctx, productID)
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.Product, error) {
	return s.repo.List(ctx, includeInactive)
}
