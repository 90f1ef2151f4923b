package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/braderie/caisse-backend/api/responses"
	"github.com/braderie/caisse-backend/api/validators"
	"github.com/braderie/caisse-backend/internal/catalog"
	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
	"github.com/braderie/caisse-backend/pkg/logger"
)

type createProductRequest struct {
	Name              string           `json:"name" validate:"required,min=1,max=200"`
	Kind              string           `json:"kind" validate:"omitempty,oneof=standard free_amount"`
	Price             decimal.Decimal  `json:"price"`
	FreeAmountCeiling *decimal.Decimal `json:"free_amount_ceiling,omitempty"`
	Stock             *int             `json:"stock,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
}

type updateProductRequest struct {
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	FreeAmountCeiling *decimal.Decimal `json:"free_amount_ceiling,omitempty"`
	Stock             *int             `json:"stock,omitempty"`
	ClearStock        bool             `json:"clear_stock,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
}

type productResponse struct {
	ID                uuid.UUID        `json:"id"`
	Name              string           `json:"name"`
	Kind              string           `json:"kind"`
	Price             decimal.Decimal  `json:"price"`
	FreeAmountCeiling *decimal.Decimal `json:"free_amount_ceiling,omitempty"`
	Stock             *int             `json:"stock,omitempty"`
	IsActive          bool             `json:"is_active"`
}

func newProductResponse(product *models.Product) productResponse {
	return productResponse{
		ID:                product.ID,
		Name:              product.Name,
		Kind:              product.Kind.String(),
		Price:             product.Price,
		FreeAmountCeiling: product.FreeAmountCeiling,
		Stock:             product.Stock,
		IsActive:          product.IsActive,
	}
}

func CreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind := enums.ProductKindStandard
		if payload.Kind != "" {
			parsed, err := enums.ParseProductKind(payload.Kind)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product kind"))
				return
			}
			kind = parsed
		}

		isActive := true
		if payload.IsActive != nil {
			isActive = *payload.IsActive
		}

		product, err := svc.Create(r.Context(), catalog.CreateProductInput{
			Name:              payload.Name,
			Kind:              kind,
			Price:             payload.Price,
			FreeAmountCeiling: payload.FreeAmountCeiling,
			Stock:             payload.Stock,
			IsActive:          isActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(product))
	}
}

func UpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), productID, catalog.UpdateProductInput{
			Name:              payload.Name,
			Price:             payload.Price,
			FreeAmountCeiling: payload.FreeAmountCeiling,
			Stock:             payload.Stock,
			ClearStock:        payload.ClearStock,
			IsActive:          payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeInactive, err := validators.ParseQueryBool(r, "include_inactive", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]productResponse, len(products))
		for i := range products {
			payload[i] = newProductResponse(&products[i])
		}
		responses.WriteSuccess(w, payload)
	}
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id in path").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
