package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
)

// AccountRepository is the persistence contract for accounts. The usecase
// only interacts with this interface, never with a concrete store.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error

	// FindByID returns domain.ErrAccountNotFound when no row exists.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// FindByIDForUpdate locks the row for the lifetime of the enclosing
	// transaction. Only meaningful on a repository bound via WithTx.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// Debit fails with domain.ErrInsufficientFunds when the stored balance
	// is below amount; the check and the subtraction are one atomic write.
	Debit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx TransactionObject) AccountRepository
}
