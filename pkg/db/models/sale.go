package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/braderie/caisse-backend/pkg/enums"
)

// Sale is the durable record of one checkout. Created atomically with its
// lines and payments; deleted atomically by undo.
type Sale struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	EventID    uuid.UUID  `gorm:"column:event_id;type:uuid;not null;index"`
	OperatorID *uuid.UUID `gorm:"column:operator_id;type:uuid"`

	// First payment's method, kept for quick filtering.
	TenderSummary enums.TenderMethod `gorm:"column:tender_summary;not null"`

	GrossTotal    decimal.Decimal `gorm:"column:gross_total;type:numeric(12,2);not null"`
	NetTotal      decimal.Decimal `gorm:"column:net_total;type:numeric(12,2);not null"`
	DiscountTotal decimal.Decimal `gorm:"column:discount_total;type:numeric(12,2);not null;default:0"`

	CartDiscountType   *enums.DiscountType `gorm:"column:cart_discount_type"`
	CartDiscountValue  *decimal.Decimal    `gorm:"column:cart_discount_value;type:numeric(12,2)"`
	CartDiscountAmount decimal.Decimal     `gorm:"column:cart_discount_amount;type:numeric(12,2);not null;default:0"`

	Lines    []SaleLine `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Payments []Payment  `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
