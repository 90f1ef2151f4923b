package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/braderie/caisse-backend/pkg/db"
	"github.com/braderie/caisse-backend/pkg/db/models"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
)

// Repository handles sale persistence, including the line and payment rows
// created and deleted with each sale.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.Sale) (*models.Sale, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	FindLatestForUpdate(ctx context.Context, eventID uuid.UUID) (*models.Sale, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Sale, error)
	Delete(ctx context.Context, sale *models.Sale) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to sale operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create persists the sale with its lines and payments in one insert batch.
func (r *repository) Create(ctx context.Context, sale *models.Sale) (*models.Sale, error) {
	if err := r.db.WithContext(ctx).Create(sale).Error; err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Payments").
		First(&sale, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, err
	}
	return &sale, nil
}

// FindLatestForUpdate locks the event's most recent sale so undo serializes
// against a concurrent undo of the same sale. The id tiebreaker keeps the
// choice deterministic when two sales share a timestamp tick.
func (r *repository) FindLatestForUpdate(ctx context.Context, eventID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := pkgdb.ForUpdate(r.db.WithContext(ctx)).
		Where("event_id = ?", eventID).
		Order("created_at desc, id desc").
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no sale to undo")
		}
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", sale.ID).Order("created_at asc").
		Find(&sale.Lines).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", sale.ID).Order("created_at asc").
		Find(&sale.Payments).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Payments").
		Where("event_id = ?", eventID).
		Order("created_at desc, id desc").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}

// Delete removes the sale and its dependent rows, children first so the
// delete also works without cascading foreign keys.
func (r *repository) Delete(ctx context.Context, sale *models.Sale) error {
	if sale == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "sale is required")
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("sale_id = ?", sale.ID).Delete(&models.Payment{}).Error; err != nil {
		return err
	}
	if err := db.Where("sale_id = ?", sale.ID).Delete(&models.SaleLine{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Sale{}, "id = ?", sale.ID).Error
}
