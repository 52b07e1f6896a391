package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

type GetAccountUseCase struct {
	accounts gateway.AccountRepository
}

func NewGetAccount(accounts gateway.AccountRepository) *GetAccountUseCase {
	return &GetAccountUseCase{accounts: accounts}
}

func (u *GetAccountUseCase) Execute(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := u.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetching account %s: %w", id, err)
	}
	return account, nil
}
