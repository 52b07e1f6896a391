package gateway

import (
	"context"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
)

// TransferRepository is the persistence contract for the transfer ledger.
// The idempotency key carries a storage-level unique constraint: Create
// surfaces a violation as domain.ErrDuplicateTransfer, which is the
// authoritative duplicate detection even when two identical requests race.
type TransferRepository interface {
	Create(ctx context.Context, transfer *domain.Transfer) error

	// FindByIdempotencyKey returns (nil, nil) when the key was never used.
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Transfer, error)

	// ListByStatus returns the most recent transfers with the given status,
	// newest first, capped at limit.
	ListByStatus(ctx context.Context, status domain.TransferStatus, limit int) ([]domain.Transfer, error)

	WithTx(tx TransactionObject) TransferRepository
}
