package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/braderie/caisse-backend/pkg/db/models"
	"github.com/braderie/caisse-backend/pkg/enums"
	pkgerrors "github.com/braderie/caisse-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:guard_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock *int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     "gobelet",
		Kind:     enums.ProductKindStandard,
		Price:    decimal.New(2, 0),
		Stock:    stock,
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func intPtr(v int) *int { return &v }

func TestReserveDecrementsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, intPtr(5))

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Request{{ProductID: product.ID, Qty: 3}})
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock == nil || *reloaded.Stock != 2 {
		t.Fatalf("unexpected stock state: %+v", reloaded.Stock)
	}
}

func TestReserveFailsAndRollsBackWhenInsufficient(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, intPtr(1))
	other := seedProduct(t, db, intPtr(10))

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Request{
			{ProductID: other.ID, Qty: 4},
			{ProductID: product.ID, Qty: 2},
		})
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	// The whole transaction rolled back, including the earlier decrement.
	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", other.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock == nil || *reloaded.Stock != 10 {
		t.Fatalf("expected untouched stock, got %+v", reloaded.Stock)
	}
}

func TestReserveSkipsUnlimitedStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(ctx, tx, []Request{{ProductID: product.ID, Qty: 999}})
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != nil {
		t.Fatalf("unlimited product must stay unlimited, got %+v", reloaded.Stock)
	}
}

func TestReserveUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(context.Background(), tx, []Request{{ProductID: uuid.New(), Qty: 1}})
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	product := seedProduct(t, db, intPtr(5))

	err := db.Transaction(func(tx *gorm.DB) error {
		return Reserve(context.Background(), tx, []Request{{ProductID: product.ID, Qty: 0}})
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveNeverOversells(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, intPtr(5))

	succeeded := 0
	for attempt := 0; attempt < 8; attempt++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return Reserve(ctx, tx, []Request{{ProductID: product.ID, Qty: 1}})
		})
		if err == nil {
			succeeded++
			continue
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
			t.Fatalf("attempt %d: unexpected error: %v", attempt, err)
		}
	}

	if succeeded != 5 {
		t.Fatalf("expected exactly 5 successful reservations, got %d", succeeded)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock == nil || *reloaded.Stock != 0 {
		t.Fatalf("expected stock 0, got %+v", reloaded.Stock)
	}
}

func TestRestockRestoresFiniteStockOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	finite := seedProduct(t, db, intPtr(2))
	unlimited := seedProduct(t, db, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		return Restock(ctx, tx, []Request{
			{ProductID: finite.ID, Qty: 3},
			{ProductID: unlimited.ID, Qty: 3},
		})
	})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, "id = ?", finite.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock == nil || *reloaded.Stock != 5 {
		t.Fatalf("expected stock 5, got %+v", reloaded.Stock)
	}

	// Fresh destination struct: reusing reloaded would fold its primary key
	// into the WHERE clause and miss the second product.
	var untracked models.Product
	if err := db.First(&untracked, "id = ?", unlimited.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if untracked.Stock != nil {
		t.Fatalf("unlimited product must stay unlimited")
	}
}
