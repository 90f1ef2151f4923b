package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Event is one till session: the accounting period between opening a float
// and counting the drawer. At most one event is active at any time, enforced
// by a partial unique index on is_active.
type Event struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	OpeningFloat decimal.Decimal `gorm:"column:opening_float;type:numeric(12,2);not null"`
	StartedAt    time.Time       `gorm:"column:started_at;not null"`
	EndedAt      *time.Time      `gorm:"column:ended_at"`
	IsActive     bool            `gorm:"column:is_active;not null;default:false"`

	// Set exactly once at close.
	ClosingCount *decimal.Decimal `gorm:"column:closing_count;type:numeric(12,2)"`
	Variance     *decimal.Decimal `gorm:"column:variance;type:numeric(12,2)"`

	// Cached denormalization of the withdrawals table, recomputed from the
	// full history on every write so concurrent writers self-heal.
	WithdrawalTotal    decimal.Decimal `gorm:"column:withdrawal_total;type:numeric(12,2);not null;default:0"`
	LastWithdrawalNote *string         `gorm:"column:last_withdrawal_note"`
	LastWithdrawalAt   *time.Time      `gorm:"column:last_withdrawal_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller did not.
func (e *Event) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Closed reports whether the session reached its terminal state.
func (e *Event) Closed() bool {
	return e.EndedAt != nil || !e.IsActive
}
