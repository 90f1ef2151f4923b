package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/braderie/caisse-backend/pkg/enums"
)

// Product is a catalog entry. Stock is nullable: absence means unlimited.
// Free-amount products carry no list price; the buyer declares the amount at
// checkout, clamped to FreeAmountCeiling (falling back to the configured
// ceiling when null).
type Product struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name              string            `gorm:"column:name;not null"`
	Kind              enums.ProductKind `gorm:"column:kind;not null;default:'standard'"`
	Price             decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	FreeAmountCeiling *decimal.Decimal  `gorm:"column:free_amount_ceiling;type:numeric(12,2)"`
	Stock             *int              `gorm:"column:stock"`
	IsActive          bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Donation reports whether the product is a buyer-priced donation entry.
func (p *Product) Donation() bool {
	return p.Kind == enums.ProductKindFreeAmount
}

// TracksStock reports whether the product has a finite stock count.
func (p *Product) TracksStock() bool {
	return p.Stock != nil
}
