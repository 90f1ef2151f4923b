package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/braderie/caisse-backend/api/responses"
	"github.com/braderie/caisse-backend/api/validators"
	"github.com/braderie/caisse-backend/internal/till"
	"github.com/braderie/caisse-backend/pkg/db/models"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
	"github.com/braderie/caisse-backend/pkg/logger"
)

type openTillRequest struct {
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

type eventResponse struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	OpeningFloat    decimal.Decimal  `json:"opening_float"`
	IsActive        bool             `json:"is_active"`
	StartedAt       string           `json:"started_at"`
	EndedAt         *string          `json:"ended_at,omitempty"`
	ClosingCount    *decimal.Decimal `json:"closing_count,omitempty"`
	Variance        *decimal.Decimal `json:"variance,omitempty"`
	WithdrawalTotal decimal.Decimal  `json:"withdrawal_total"`
}

func newEventResponse(event *models.Event) eventResponse {
	resp := eventResponse{
		ID:              event.ID,
		Name:            event.Name,
		OpeningFloat:    event.OpeningFloat,
		IsActive:        event.IsActive,
		StartedAt:       event.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		ClosingCount:    event.ClosingCount,
		Variance:        event.Variance,
		WithdrawalTotal: event.WithdrawalTotal,
	}
	if event.EndedAt != nil {
		ended := event.EndedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.EndedAt = &ended
	}
	return resp
}

func OpenTill(svc till.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload openTillRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.Open(r.Context(), till.OpenInput{
			Name:         payload.Name,
			OpeningFloat: payload.OpeningFloat,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithEventID(ctx, event.ID.String())
			logg.Info(ctx, "till.opened")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newEventResponse(event))
	}
}

type tillSummaryResponse struct {
	Event           eventResponse              `json:"event"`
	SaleCount       int64                      `json:"sale_count"`
	TotalsByTender  map[string]decimal.Decimal `json:"totals_by_tender"`
	TheoreticalCash decimal.Decimal            `json:"theoretical_cash"`
}

func ActiveTill(svc till.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Active(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		totals := make(map[string]decimal.Decimal, len(summary.TotalsByTender))
		for method, amount := range summary.TotalsByTender {
			totals[method.String()] = amount
		}
		responses.WriteSuccess(w, tillSummaryResponse{
			Event:           newEventResponse(summary.Event),
			SaleCount:       summary.SaleCount,
			TotalsByTender:  totals,
			TheoreticalCash: summary.TheoreticalCash,
		})
	}
}

type closeTillRequest struct {
	EventID          uuid.UUID        `json:"event_id" validate:"required"`
	CountedAmount    decimal.Decimal  `json:"counted_amount"`
	WithdrawalAmount *decimal.Decimal `json:"withdrawal_amount,omitempty"`
	WithdrawalNote   *string          `json:"withdrawal_note,omitempty" validate:"omitempty,max=500"`
}

type closeTillResponse struct {
	EventID          uuid.UUID       `json:"event_id"`
	TheoreticalFloat decimal.Decimal `json:"theoretical_float"`
	CountedAmount    decimal.Decimal `json:"counted_amount"`
	Variance         decimal.Decimal `json:"variance"`
}

func CloseTill(svc till.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload closeTillRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Close(r.Context(), till.CloseInput{
			EventID:          payload.EventID,
			CountedAmount:    payload.CountedAmount,
			WithdrawalAmount: payload.WithdrawalAmount,
			WithdrawalNote:   payload.WithdrawalNote,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithEventID(ctx, result.EventID.String())
			ctx = logg.WithFields(ctx, map[string]any{"variance": result.Variance.String()})
			logg.Info(ctx, "till.closed")
		}
		responses.WriteSuccess(w, closeTillResponse{
			EventID:          result.EventID,
			TheoreticalFloat: result.TheoreticalFloat,
			CountedAmount:    result.CountedAmount,
			Variance:         result.Variance,
		})
	}
}

type withdrawalRequest struct {
	EventID uuid.UUID       `json:"event_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Note    *string         `json:"note,omitempty" validate:"omitempty,max=500"`
}

type withdrawalResponse struct {
	EventID         uuid.UUID       `json:"event_id"`
	WithdrawalTotal decimal.Decimal `json:"withdrawal_total"`
}

func RecordWithdrawal(svc till.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "till service unavailable"))
			return
		}

		var payload withdrawalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Withdraw(r.Context(), till.WithdrawInput{
			EventID: payload.EventID,
			Amount:  payload.Amount,
			Note:    payload.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, withdrawalResponse{
			EventID:         result.EventID,
			WithdrawalTotal: result.WithdrawalTotal,
		})
	}
}
