package till

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgdb "github.com/braderie/caisse-backend/pkg/db"
	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
)

// Repository handles event (till session) persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.Event) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	FindActive(ctx context.Context) (*models.Event, error)
	FindActiveForUpdate(ctx context.Context) (*models.Event, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error)
	SumCashPayments(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error)
	SumPaymentsByMethod(ctx context.Context, eventID uuid.UUID) (map[enums.TenderMethod]decimal.Decimal, error)
	CountSales(ctx context.Context, eventID uuid.UUID) (int64, error)
	CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error)
	WithdrawalStats(ctx context.Context, eventID uuid.UUID) (*WithdrawalStats, error)
}

// WithdrawalStats is the recomputed aggregate over an event's withdrawals.
type WithdrawalStats struct {
	Total    decimal.Decimal
	LastNote *string
	LastAt   *time.Time
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to till operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

func (r *repository) Update(ctx context.Context, event *models.Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "event is required")
	}
	return r.db.WithContext(ctx).Save(event).Error
}

// ErrNoActiveSession is the domain failure for operations that require an
// open till.
var ErrNoActiveSession = pkgerrors.New(pkgerrors.CodeStateConflict, "no active till session")

func (r *repository) FindActive(ctx context.Context) (*models.Event, error) {
	return r.findActive(r.db.WithContext(ctx))
}

// FindActiveForUpdate resolves and locks the single active event so the
// caller's transaction serializes against closes and withdrawals.
func (r *repository) FindActiveForUpdate(ctx context.Context) (*models.Event, error) {
	return r.findActive(pkgdb.ForUpdate(r.db.WithContext(ctx)))
}

func (r *repository) findActive(query *gorm.DB) (*models.Event, error) {
	var event models.Event
	if err := query.First(&event, "is_active = ?", true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := pkgdb.ForUpdate(r.db.WithContext(ctx)).
		First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) SumCashPayments(ctx context.Context, eventID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(payments.amount), 0)
			FROM payments
			JOIN sales ON sales.id = payments.sale_id
			WHERE sales.event_id = ? AND payments.method = ?`, eventID, enums.TenderMethodCash).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) SumPaymentsByMethod(ctx context.Context, eventID uuid.UUID) (map[enums.TenderMethod]decimal.Decimal, error) {
	rows, err := r.db.WithContext(ctx).
		Raw(`SELECT payments.method, COALESCE(SUM(payments.amount), 0)
			FROM payments
			JOIN sales ON sales.id = payments.sale_id
			WHERE sales.event_id = ?
			GROUP BY payments.method`, eventID).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[enums.TenderMethod]decimal.Decimal)
	for rows.Next() {
		var method enums.TenderMethod
		var amount decimal.Decimal
		if err := rows.Scan(&method, &amount); err != nil {
			return nil, err
		}
		totals[method] = amount
	}
	return totals, rows.Err()
}

func (r *repository) CountSales(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Sale{}).
		Where("event_id = ?", eventID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) CreateWithdrawal(ctx context.Context, withdrawal *models.Withdrawal) (*models.Withdrawal, error) {
	if err := r.db.WithContext(ctx).Create(withdrawal).Error; err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// WithdrawalStats recomputes the cached aggregate from the full withdrawal
// history, so concurrent writers converge instead of double counting.
func (r *repository) WithdrawalStats(ctx context.Context, eventID uuid.UUID) (*WithdrawalStats, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).
		Raw(`SELECT COALESCE(SUM(amount), 0) FROM withdrawals WHERE event_id = ?`, eventID).
		Row()
	if err := row.Scan(&total); err != nil {
		return nil, err
	}

	stats := &WithdrawalStats{Total: total}

	var last models.Withdrawal
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at desc").
		First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, nil
		}
		return nil, err
	}
	stats.LastNote = last.Note
	stats.LastAt = &last.CreatedAt
	return stats, nil
}
