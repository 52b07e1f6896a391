package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

// GetStatementUseCase reconstructs an account's balance history from its
// balance.updated events, oldest first.
type GetStatementUseCase struct {
	accounts gateway.AccountRepository
	events   gateway.EventStore
}

func NewGetStatement(accounts gateway.AccountRepository, events gateway.EventStore) *GetStatementUseCase {
	return &GetStatementUseCase{accounts: accounts, events: events}
}

func (u *GetStatementUseCase) Execute(ctx context.Context, accountID uuid.UUID) ([]domain.Event, error) {
	if _, err := u.accounts.FindByID(ctx, accountID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetching account %s: %w", accountID, err)
	}

	entries, err := u.events.ByTypeAndAccount(ctx, domain.EventBalanceUpdated, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying balance history for %s: %w", accountID, err)
	}
	return entries, nil
}
