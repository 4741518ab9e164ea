package store

import (
	"context"
	"time"

	"table-order/internal/models"
)

// StartFunc decides what a session start does for a table. It receives the
// binding (nil when the table was never used) and the session it points at
// (nil when there is none). Returning a non-nil session creates it and
// repoints the binding; returning nil reuses current.
type StartFunc func(binding *models.TableBinding, current *models.Session) (*models.Session, error)

type Store interface {
	ListMenu(ctx context.Context, shopID string, activeOnly bool) ([]models.MenuItem, error)
	PutMenuItem(ctx context.Context, item models.MenuItem) error

	// StartSession runs decide with the table binding locked.
	StartSession(ctx context.Context, shopID string, tableNumber int, decide StartFunc) (models.Session, bool, error)
	GetTable(ctx context.Context, shopID string, tableNumber int) (models.TableBinding, bool, error)
	GetSession(ctx context.Context, id string) (models.Session, error)

	// AppendOrder records the order and increments the session total in one
	// step. It fails with models.ErrSessionClosed once the session is paid.
	AppendOrder(ctx context.Context, order models.Order) (models.Session, error)
	ListOrders(ctx context.Context, sessionID string) ([]models.Order, error)

	// SettleSession recomputes the total from the order log, marks the session
	// paid and releases the table.
	SettleSession(ctx context.Context, sessionID string, now time.Time) (models.Session, []models.Order, error)

	Close()
}
