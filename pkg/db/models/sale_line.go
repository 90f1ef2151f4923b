package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/braderie/caisse-backend/pkg/enums"
)

// SaleLine snapshots one priced cart line with its full discount provenance,
// so receipts can show the journey from list price to charged price.
type SaleLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SaleID    uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Qty       int       `gorm:"column:qty;not null"`

	OriginUnitPrice decimal.Decimal `gorm:"column:origin_unit_price;type:numeric(12,2);not null"`
	FinalUnitPrice  decimal.Decimal `gorm:"column:final_unit_price;type:numeric(12,2);not null"`

	LineDiscountType   *enums.DiscountType `gorm:"column:line_discount_type"`
	LineDiscountValue  *decimal.Decimal    `gorm:"column:line_discount_value;type:numeric(12,2)"`
	LineDiscountAmount decimal.Decimal     `gorm:"column:line_discount_amount;type:numeric(12,2);not null;default:0"`

	// Portion of the cart-level discount allocated to this line.
	CartDiscountShare decimal.Decimal `gorm:"column:cart_discount_share;type:numeric(12,2);not null;default:0"`

	OriginTotal decimal.Decimal `gorm:"column:origin_total;type:numeric(12,2);not null"`
	FinalTotal  decimal.Decimal `gorm:"column:final_total;type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (l *SaleLine) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
