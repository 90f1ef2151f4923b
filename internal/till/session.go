package till

import (
	"context"

	"gorm.io/gorm"

	"github.com/braderie/caisse-backend/pkg/db/models"
)

// SessionSource hands the active session to other services as an explicit
// dependency. Resolve locks the event row, so callers holding a transaction
// serialize against closes and withdrawals.
type SessionSource struct {
	repo Repository
}

// NewSessionSource wraps the till repository as a session resolver.
func NewSessionSource(repo Repository) SessionSource {
	return SessionSource{repo: repo}
}

// Resolve returns the locked active event, or ErrNoActiveSession.
func (s SessionSource) Resolve(ctx context.Context, tx *gorm.DB) (*models.Event, error) {
	return s.repo.WithTx(tx).FindActiveForUpdate(ctx)
}
