package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Withdrawal is cash taken out of the till. Append-only; the owning Event
// keeps a cached sum that is recomputed from this table, never incremented.
type Withdrawal struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	EventID   uuid.UUID       `gorm:"column:event_id;type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Note      *string         `gorm:"column:note"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (w *Withdrawal) BeforeCreate(_ *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
