package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/braderie/caisse-backend/api/responses"
	"github.com/braderie/caisse-backend/internal/sales"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
	"github.com/braderie/caisse-backend/pkg/logger"
)

type undoResponse struct {
	SaleID   uuid.UUID           `json:"sale_id"`
	NetTotal decimal.Decimal     `json:"net_total"`
	Restored []restoredStockItem `json:"restored_stock"`
}

type restoredStockItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Qty       int       `json:"qty"`
}

// UndoLastSale reverses the active event's most recent sale.
func UndoLastSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		result, err := svc.UndoLast(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := undoResponse{
			SaleID:   result.SaleID,
			NetTotal: result.NetTotal,
			Restored: make([]restoredStockItem, 0, len(result.Restored)),
		}
		for _, item := range result.Restored {
			payload.Restored = append(payload.Restored, restoredStockItem{
				ProductID: item.ProductID,
				Qty:       item.Qty,
			})
		}
		responses.WriteSuccess(w, payload)
	}
}

// ListSales returns the active event's sales, newest first.
func ListSales(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		listed, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]saleResponse, len(listed))
		for i := range listed {
			payload[i] = newSaleResponse(&listed[i])
		}
		responses.WriteSuccess(w, payload)
	}
}
