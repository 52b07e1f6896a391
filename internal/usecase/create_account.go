package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

type CreateAccountInput struct {
	Role    domain.Role
	Balance decimal.Decimal
}

type CreateAccountUseCase struct {
	accounts gateway.AccountRepository
}

func NewCreateAccount(accounts gateway.AccountRepository) *CreateAccountUseCase {
	return &CreateAccountUseCase{accounts: accounts}
}

// Execute persists a new account. A single insert, so no unit of work is
// needed here.
func (u *CreateAccountUseCase) Execute(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if !input.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if input.Balance.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	account := &domain.Account{
		ID:      uuid.New(),
		Role:    input.Role,
		Balance: input.Balance,
	}
	if err := u.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
