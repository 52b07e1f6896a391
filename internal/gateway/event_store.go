package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
)

// EventStore is the append-only audit trail. Events are never updated or
// deleted. Inside the balance-mutation unit an Append failure aborts the
// whole unit; in the notification path it is only logged.
type EventStore interface {
	Append(ctx context.Context, event *domain.Event) error

	// ByCorrelationKey returns every event sharing the key, oldest first.
	ByCorrelationKey(ctx context.Context, key string) ([]domain.Event, error)

	// ByTypeAndAccount returns the events of one type touching one account,
	// oldest first. Used to reconstruct a balance history.
	ByTypeAndAccount(ctx context.Context, eventType domain.EventType, accountID uuid.UUID) ([]domain.Event, error)
}
