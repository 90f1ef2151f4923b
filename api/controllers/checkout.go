package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/braderie/caisse-backend/api/responses"
	"github.com/braderie/caisse-backend/api/validators"
	"github.com/braderie/caisse-backend/internal/pricing"
	"github.com/braderie/caisse-backend/internal/sales"
	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
	"github.com/braderie/caisse-backend/pkg/logger"
)

type checkoutItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Qty       int              `json:"qty" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Discount  *discountRequest `json:"discount,omitempty"`
}

type discountRequest struct {
	Type  string          `json:"type" validate:"required,oneof=percentage fixed_amount"`
	Value decimal.Decimal `json:"value"`
}

type checkoutPaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash card check"`
	Amount decimal.Decimal `json:"amount"`
}

type checkoutRequest struct {
	Items        []checkoutItemRequest    `json:"items" validate:"required,min=1,dive"`
	CartDiscount *discountRequest         `json:"cart_discount,omitempty"`
	Payments     []checkoutPaymentRequest `json:"payments" validate:"required,min=1,dive"`
	OperatorID   *uuid.UUID               `json:"operator_id,omitempty"`
}

type saleLineResponse struct {
	ProductID          uuid.UUID       `json:"product_id"`
	Qty                int             `json:"qty"`
	OriginUnitPrice    decimal.Decimal `json:"origin_unit_price"`
	FinalUnitPrice     decimal.Decimal `json:"final_unit_price"`
	LineDiscountAmount decimal.Decimal `json:"line_discount_amount"`
	CartDiscountShare  decimal.Decimal `json:"cart_discount_share"`
	OriginTotal        decimal.Decimal `json:"origin_total"`
	FinalTotal         decimal.Decimal `json:"final_total"`
}

type salePaymentResponse struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type saleResponse struct {
	ID            uuid.UUID             `json:"id"`
	EventID       uuid.UUID             `json:"event_id"`
	TenderSummary string                `json:"tender_summary"`
	GrossTotal    decimal.Decimal       `json:"gross_total"`
	NetTotal      decimal.Decimal       `json:"net_total"`
	DiscountTotal decimal.Decimal       `json:"discount_total"`
	Lines         []saleLineResponse    `json:"lines"`
	Payments      []salePaymentResponse `json:"payments"`
	CreatedAt     string                `json:"created_at"`
}

func newSaleResponse(sale *models.Sale) saleResponse {
	resp := saleResponse{
		ID:            sale.ID,
		EventID:       sale.EventID,
		TenderSummary: sale.TenderSummary.String(),
		GrossTotal:    sale.GrossTotal,
		NetTotal:      sale.NetTotal,
		DiscountTotal: sale.DiscountTotal,
		CreatedAt:     sale.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, line := range sale.Lines {
		resp.Lines = append(resp.Lines, saleLineResponse{
			ProductID:          line.ProductID,
			Qty:                line.Qty,
			OriginUnitPrice:    line.OriginUnitPrice,
			FinalUnitPrice:     line.FinalUnitPrice,
			LineDiscountAmount: line.LineDiscountAmount,
			CartDiscountShare:  line.CartDiscountShare,
			OriginTotal:        line.OriginTotal,
			FinalTotal:         line.FinalTotal,
		})
	}
	for _, payment := range sale.Payments {
		resp.Payments = append(resp.Payments, salePaymentResponse{
			Method: payment.Method.String(),
			Amount: payment.Amount,
		})
	}
	return resp
}

func parseDiscount(req *discountRequest) (*pricing.Discount, error) {
	if req == nil {
		return nil, nil
	}
	discountType, err := enums.ParseDiscountType(req.Type)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	return &pricing.Discount{Type: discountType, Value: req.Value}, nil
}

// Checkout prices the submitted cart, reserves stock and persists the sale.
func Checkout(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sales.CheckoutInput{OperatorID: payload.OperatorID}

		cartDiscount, err := parseDiscount(payload.CartDiscount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.CartDiscount = cartDiscount

		for _, item := range payload.Items {
			discount, err := parseDiscount(item.Discount)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = append(input.Items, sales.ItemInput{
				ProductID: item.ProductID,
				Qty:       item.Qty,
				UnitPrice: item.UnitPrice,
				Discount:  discount,
			})
		}

		for _, payment := range payload.Payments {
			method, err := enums.ParseTenderMethod(payment.Method)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tender method"))
				return
			}
			input.Payments = append(input.Payments, sales.PaymentInput{
				Method: method,
				Amount: payment.Amount,
			})
		}

		ctx := r.Context()
		if logg != nil && payload.OperatorID != nil {
			ctx = logg.WithOperatorID(ctx, payload.OperatorID.String())
		}

		sale, err := svc.Checkout(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSaleResponse(sale))
	}
}
