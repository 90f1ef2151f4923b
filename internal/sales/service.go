package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/braderie/caisse-backend/internal/catalog"
	"github.com/braderie/caisse-backend/internal/inventory"
	"github.com/braderie/caisse-backend/internal/pricing"
	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
	"github.com/braderie/caisse-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ActiveSession resolves and locks the till session a mutation belongs to.
// Checkout and undo depend on it explicitly instead of querying for the
// active event themselves.
type ActiveSession interface {
	Resolve(ctx context.Context, tx *gorm.DB) (*models.Event, error)
}

// Service turns carts into durable sales and reverses the most recent one.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*models.Sale, error)
	UndoLast(ctx context.Context) (*UndoResult, error)
	ListActive(ctx context.Context) ([]models.Sale, error)
}

// ItemInput is one submitted cart row.
type ItemInput struct {
	ProductID uuid.UUID
	Qty       int
	// UnitPrice is the buyer-declared amount for free-amount products.
	UnitPrice *decimal.Decimal
	Discount  *pricing.Discount
}

// PaymentInput is one tender covering part of the sale.
type PaymentInput struct {
	Method enums.TenderMethod
	Amount decimal.Decimal
}

// CheckoutInput is a full checkout request.
type CheckoutInput struct {
	Items        []ItemInput
	CartDiscount *pricing.Discount
	Payments     []PaymentInput
	OperatorID   *uuid.UUID
}

// UndoResult reports the reversed sale and the stock it released.
type UndoResult struct {
	SaleID   uuid.UUID
	NetTotal decimal.Decimal
	Restored []inventory.Request
}

// Options tunes payment and donation handling.
type Options struct {
	// PaymentTolerance is the accepted shortfall between payments and the
	// net total, absorbing rounding on split tenders.
	PaymentTolerance decimal.Decimal
	// DonationCeiling bounds buyer-declared amounts when the product does
	// not carry its own ceiling.
	DonationCeiling decimal.Decimal
}

type service struct {
	tx       txRunner
	repo     Repository
	products catalog.Repository
	session  ActiveSession
	opts     Options
	metrics  *metrics.CheckoutMetrics
}

// NewService builds the sale ledger service.
func NewService(tx txRunner, repo Repository, products catalog.Repository, session ActiveSession, opts Options, m *metrics.CheckoutMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if session == nil {
		return nil, fmt.Errorf("active session source required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		products: products,
		session:  session,
		opts:     opts,
		metrics:  m,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*models.Sale, error) {
	start := time.Now()
	sale, err := s.checkout(ctx, input)
	s.observe("checkout", start, err)
	return sale, err
}

func (s *service) checkout(ctx context.Context, input CheckoutInput) (*models.Sale, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	if len(input.Payments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one payment is required")
	}
	for _, payment := range input.Payments {
		if !payment.Method.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown tender method %q", payment.Method))
		}
		if !payment.Amount.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
		}
	}

	var sale *models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		event, err := s.session.Resolve(ctx, tx)
		if err != nil {
			return err
		}

		entries := make([]pricing.CartEntry, len(input.Items))
		ids := make([]uuid.UUID, len(input.Items))
		for i, item := range input.Items {
			entries[i] = pricing.CartEntry{
				ProductID: item.ProductID,
				Qty:       item.Qty,
				UnitPrice: item.UnitPrice,
				Discount:  item.Discount,
			}
			ids[i] = item.ProductID
		}

		products, err := s.products.WithTx(tx).FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for id, product := range products {
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is no longer for sale", id))
			}
		}

		breakdown, err := pricing.PriceCart(entries, products, input.CartDiscount, pricing.Options{
			DonationCeiling: s.opts.DonationCeiling,
		})
		if err != nil {
			return err
		}

		reservations := make([]inventory.Request, 0, len(breakdown.Lines))
		for _, line := range breakdown.Lines {
			reservations = append(reservations, inventory.Request{ProductID: line.ProductID, Qty: line.Qty})
		}
		if err := inventory.Reserve(ctx, tx, reservations); err != nil {
			return err
		}

		if err := s.checkPaymentCoverage(breakdown.NetTotal, input.Payments); err != nil {
			return err
		}

		sale, err = s.repo.WithTx(tx).Create(ctx, buildSale(event.ID, input, breakdown))
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// checkPaymentCoverage requires the tendered sum to reach the net total,
// less the configured tolerance.
func (s *service) checkPaymentCoverage(net decimal.Decimal, payments []PaymentInput) error {
	paid := decimal.Zero
	for _, payment := range payments {
		paid = paid.Add(payment.Amount)
	}
	if paid.GreaterThanOrEqual(net.Sub(s.opts.PaymentTolerance)) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("payments cover %s of %s due", paid.StringFixed(2), net.StringFixed(2)))
}

func buildSale(eventID uuid.UUID, input CheckoutInput, breakdown *pricing.Breakdown) *models.Sale {
	sale := &models.Sale{
		EventID:            eventID,
		OperatorID:         input.OperatorID,
		TenderSummary:      enums.TenderMethodCash,
		GrossTotal:         breakdown.GrossTotal,
		NetTotal:           breakdown.NetTotal,
		DiscountTotal:      breakdown.DiscountTotal,
		CartDiscountAmount: breakdown.CartDiscountAmount,
	}
	if len(input.Payments) > 0 {
		sale.TenderSummary = input.Payments[0].Method
	}
	if breakdown.CartDiscount != nil {
		discountType := breakdown.CartDiscount.Type
		discountValue := breakdown.CartDiscount.Value
		sale.CartDiscountType = &discountType
		sale.CartDiscountValue = &discountValue
	}

	for _, line := range breakdown.Lines {
		row := models.SaleLine{
			ProductID:          line.ProductID,
			Qty:                line.Qty,
			OriginUnitPrice:    line.OriginUnitPrice,
			FinalUnitPrice:     line.FinalUnitPrice,
			LineDiscountAmount: line.LineDiscountAmount,
			CartDiscountShare:  line.CartDiscountShare,
			OriginTotal:        line.OriginTotal,
			FinalTotal:         line.FinalTotal,
		}
		if line.LineDiscount != nil {
			discountType := line.LineDiscount.Type
			discountValue := line.LineDiscount.Value
			row.LineDiscountType = &discountType
			row.LineDiscountValue = &discountValue
		}
		sale.Lines = append(sale.Lines, row)
	}

	for _, payment := range input.Payments {
		sale.Payments = append(sale.Payments, models.Payment{
			Method: payment.Method,
			Amount: payment.Amount.Round(2),
		})
	}
	return sale
}

// UndoLast reverses the active event's most recent sale: restores the stock
// its lines consumed, then deletes the sale with its lines and payments.
func (s *service) UndoLast(ctx context.Context) (*UndoResult, error) {
	start := time.Now()
	result, err := s.undoLast(ctx)
	s.observe("undo", start, err)
	return result, err
}

func (s *service) undoLast(ctx context.Context) (*UndoResult, error) {
	var result *UndoResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		event, err := s.session.Resolve(ctx, tx)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		sale, err := repo.FindLatestForUpdate(ctx, event.ID)
		if err != nil {
			return err
		}

		restored := make([]inventory.Request, 0, len(sale.Lines))
		for _, line := range sale.Lines {
			restored = append(restored, inventory.Request{ProductID: line.ProductID, Qty: line.Qty})
		}
		if err := inventory.Restock(ctx, tx, restored); err != nil {
			return err
		}

		if err := repo.Delete(ctx, sale); err != nil {
			return err
		}

		result = &UndoResult{
			SaleID:   sale.ID,
			NetTotal: sale.NetTotal,
			Restored: restored,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListActive returns the active event's sales, newest first.
func (s *service) ListActive(ctx context.Context) ([]models.Sale, error) {
	var listed []models.Sale
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		event, err := s.session.Resolve(ctx, tx)
		if err != nil {
			return err
		}
		listed, err = s.repo.WithTx(tx).ListByEvent(ctx, event.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return listed, nil
}

func (s *service) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDuration(operation, time.Since(start))
	if err == nil {
		s.metrics.IncSuccess(operation)
		return
	}
	code := string(pkgerrors.CodeInternal)
	if typed := pkgerrors.As(err); typed != nil {
		code = string(typed.Code())
	}
	s.metrics.IncFailure(operation, code)
}
