package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/braderie/caisse-backend/pkg/enums"
)

// Payment is one tender row of a sale. A sale may be settled across several
// tenders; their sum must cover the net total within the configured tolerance.
type Payment struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SaleID    uuid.UUID          `gorm:"column:sale_id;type:uuid;not null;index"`
	Method    enums.TenderMethod `gorm:"column:method;not null"`
	Amount    decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
