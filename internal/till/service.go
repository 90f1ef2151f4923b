package till

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgdb "github.com/braderie/caisse-backend/pkg/db"
	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the till session lifecycle: open, reconcile/close, withdraw.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Event, error)
	Active(ctx context.Context) (*Summary, error)
	Close(ctx context.Context, input CloseInput) (*CloseResult, error)
	Withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error)
}

// OpenInput starts a new till session with its opening float.
type OpenInput struct {
	Name         string
	OpeningFloat decimal.Decimal
}

// Summary describes the active session for the close screen.
type Summary struct {
	Event           *models.Event
	SaleCount       int64
	TotalsByTender  map[enums.TenderMethod]decimal.Decimal
	TheoreticalCash decimal.Decimal
}

// CloseInput reconciles and terminates a session.
type CloseInput struct {
	EventID       uuid.UUID
	CountedAmount decimal.Decimal
	// Optional withdrawal recorded in the same transaction as the close.
	WithdrawalAmount *decimal.Decimal
	WithdrawalNote   *string
}

// CloseResult reports the reconciliation outcome.
type CloseResult struct {
	EventID          uuid.UUID
	TheoreticalFloat decimal.Decimal
	CountedAmount    decimal.Decimal
	Variance         decimal.Decimal
}

// WithdrawInput records cash leaving the till.
type WithdrawInput struct {
	EventID uuid.UUID
	Amount  decimal.Decimal
	Note    *string
}

// WithdrawResult reports the recomputed cumulative total.
type WithdrawResult struct {
	EventID         uuid.UUID
	WithdrawalTotal decimal.Decimal
}

type service struct {
	tx   txRunner
	repo Repository
}

// NewService builds the till lifecycle service.
func NewService(tx txRunner, repo Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("till repository required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) Open(ctx context.Context, input OpenInput) (*models.Event, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name required")
	}
	if input.OpeningFloat.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening float cannot be negative")
	}

	var created *models.Event
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindActiveForUpdate(ctx); err == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "a till session is already open")
		} else if !errors.Is(err, ErrNoActiveSession) {
			return err
		}

		event := &models.Event{
			Name:            name,
			OpeningFloat:    input.OpeningFloat.Round(2),
			StartedAt:       time.Now().UTC(),
			IsActive:        true,
			WithdrawalTotal: decimal.Zero,
		}
		var err error
		created, err = repo.Create(ctx, event)
		if err != nil {
			// The partial unique index is the authority for concurrent opens.
			if pkgdb.IsUniqueViolation(err, "events_single_active_idx") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "a till session is already open")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Active(ctx context.Context) (*Summary, error) {
	event, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.SumPaymentsByMethod(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountSales(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	cash := totals[enums.TenderMethodCash]
	return &Summary{
		Event:           event,
		SaleCount:       count,
		TotalsByTender:  totals,
		TheoreticalCash: event.OpeningFloat.Add(cash),
	}, nil
}

func (s *service) Close(ctx context.Context, input CloseInput) (*CloseResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.CountedAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted amount cannot be negative")
	}
	if input.WithdrawalAmount != nil && !input.WithdrawalAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}

	var result *CloseResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		event, err := repo.FindByIDForUpdate(ctx, input.EventID)
		if err != nil {
			return err
		}
		if event.Closed() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event already closed")
		}

		cash, err := repo.SumCashPayments(ctx, event.ID)
		if err != nil {
			return err
		}

		theoretical := event.OpeningFloat.Add(cash)
		counted := input.CountedAmount.Round(2)
		variance := counted.Sub(theoretical)

		now := time.Now().UTC()
		event.ClosingCount = &counted
		event.Variance = &variance
		event.EndedAt = &now
		event.IsActive = false

		if input.WithdrawalAmount != nil {
			if err := recordWithdrawal(ctx, repo, event, *input.WithdrawalAmount, input.WithdrawalNote); err != nil {
				return err
			}
		}

		if err := repo.Update(ctx, event); err != nil {
			return err
		}

		result = &CloseResult{
			EventID:          event.ID,
			TheoreticalFloat: theoretical,
			CountedAmount:    counted,
			Variance:         variance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal amount must be positive")
	}

	var result *WithdrawResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		event, err := repo.FindByIDForUpdate(ctx, input.EventID)
		if err != nil {
			return err
		}

		if err := recordWithdrawal(ctx, repo, event, input.Amount, input.Note); err != nil {
			return err
		}
		if err := repo.Update(ctx, event); err != nil {
			return err
		}

		result = &WithdrawResult{
			EventID:         event.ID,
			WithdrawalTotal: event.WithdrawalTotal,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recordWithdrawal appends a withdrawal row and refreshes the event's cached
// aggregate from the full history. The caller persists the event.
func recordWithdrawal(ctx context.Context, repo Repository, event *models.Event, amount decimal.Decimal, note *string) error {
	withdrawal := &models.Withdrawal{
		EventID: event.ID,
		Amount:  amount.Round(2),
		Note:    note,
	}
	if _, err := repo.CreateWithdrawal(ctx, withdrawal); err != nil {
		return err
	}

	stats, err := repo.WithdrawalStats(ctx, event.ID)
	if err != nil {
		return err
	}
	event.WithdrawalTotal = stats.Total
	event.LastWithdrawalNote = stats.LastNote
	event.LastWithdrawalAt = stats.LastAt
	return nil
}
