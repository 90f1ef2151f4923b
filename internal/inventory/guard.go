package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/braderie/caisse-backend/pkg/db"
	"github.com/braderie/caisse-backend/pkg/db/models"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
)

// Request asks the guard to reserve or restore stock for one product.
type Request struct {
	ProductID uuid.UUID
	Qty       int
}

// Reserve decrements stock for every finite-stock product in requests, inside
// the caller's transaction. Each product row is locked, checked against the
// requested quantity, then decremented with a conditional update whose
// zero-rows-affected outcome is the authoritative "insufficient stock" signal.
// Unlimited-stock products (stock IS NULL) are skipped.
//
// Any failure must abort the surrounding transaction; the guard never commits.
func Reserve(ctx context.Context, tx *gorm.DB, requests []Request) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation missing product id")
		}
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}

		var product models.Product
		if err := db.ForUpdate(tx.WithContext(ctx)).
			First(&product, "id = ?", req.ProductID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown product %s", req.ProductID))
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking product")
		}

		if !product.TracksStock() {
			continue
		}

		// Advisory check against the locked snapshot; gives the descriptive
		// error before the write is attempted.
		if *product.Stock < req.Qty {
			return insufficientStock(product.Name, req.Qty, *product.Stock)
		}

		// Authoritative conditional decrement; closes the race window between
		// the snapshot read and the write.
		res := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND stock >= ?", req.ProductID, req.Qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", req.Qty))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrementing stock")
		}
		if res.RowsAffected == 0 {
			return insufficientStock(product.Name, req.Qty, *product.Stock)
		}
	}

	return nil
}

// Restock restores previously decremented quantities. No floor check is
// needed: the quantity being restored was, by construction, decremented by a
// committed reservation. Unlimited-stock products are left untouched.
func Restock(ctx context.Context, tx *gorm.DB, requests []Request) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	for _, req := range requests {
		if req.ProductID == uuid.Nil || req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid restock request")
		}
		res := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND stock IS NOT NULL", req.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", req.Qty))
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "restoring stock")
		}
	}

	return nil
}

func insufficientStock(name string, requested, available int) error {
	return pkgerrors.New(
		pkgerrors.CodeConflict,
		fmt.Sprintf("insufficient stock for %q: %d requested, %d available", name, requested, available),
	)
}
